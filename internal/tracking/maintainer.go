package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/temporal"
)

// Maintainer loads activity windows from the store and persists derived
// goal progress, streaks and daily summaries.
type Maintainer struct {
	store store.Store
	log   zerolog.Logger
}

func NewMaintainer(s store.Store, log zerolog.Logger) *Maintainer {
	return &Maintainer{store: s, log: log}
}

// RecomputeGoals re-derives progress for every non-paused goal with a rule,
// using the local day and Monday-start week containing now. It returns the
// goals whose progress or status changed.
func (m *Maintainer) RecomputeGoals(ctx context.Context, userID string, now time.Time, loc *time.Location) ([]model.Goal, error) {
	goals, err := m.store.Goals().List(ctx, userID, model.GoalActive, model.GoalCompleted)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	needed := false
	for _, g := range goals {
		needed = needed || HasRule(g.Type)
	}
	if !needed {
		return nil, nil
	}

	weekStart := temporal.WeekStart(now, loc)
	week, err := m.store.Activities().ListBetween(ctx, userID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return nil, fmt.Errorf("list week activities: %w", err)
	}
	dayStart, dayEnd := temporal.DayBounds(now, loc)
	var today []model.Activity
	for _, a := range week {
		if at := a.OccurredAt(); !at.Before(dayStart) && at.Before(dayEnd) {
			today = append(today, a)
		}
	}

	var changed []model.Goal
	for _, g := range goals {
		progress, ok := Progress(g.Type, today, week)
		if !ok {
			continue
		}
		next := ApplyProgress(g, progress)
		if next.CurrentProgress == g.CurrentProgress && next.Status == g.Status {
			continue
		}
		if err := m.store.Goals().Update(ctx, next); err != nil {
			return changed, fmt.Errorf("update goal %s: %w", g.ID, err)
		}
		m.log.Debug().Str("user_id", userID).Str("goal_id", g.ID).Str("type", string(g.Type)).
			Float64("progress", next.CurrentProgress).Str("status", string(next.Status)).Msg("goal recomputed")
		changed = append(changed, next)
	}
	return changed, nil
}

// UpdateStreak applies an activity day at `at` to the user's streak of type t.
func (m *Maintainer) UpdateStreak(ctx context.Context, userID string, t model.StreakType, at time.Time, loc *time.Location) (StreakUpdate, error) {
	prev, err := m.store.Streaks().Get(ctx, userID, t)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return StreakUpdate{}, fmt.Errorf("get streak: %w", err)
	}
	if errors.Is(err, model.ErrNotFound) {
		prev = nil
	}
	u, err := NextStreak(prev, userID, t, at, loc)
	if err != nil {
		return StreakUpdate{}, err
	}
	if !u.Changed {
		return u, nil
	}
	if err := m.store.Streaks().Upsert(ctx, u.Streak); err != nil {
		return StreakUpdate{}, fmt.Errorf("upsert streak: %w", err)
	}
	if u.AtRisk {
		m.log.Info().Str("user_id", userID).Str("streak", string(t)).Int("gap", u.Gap).Msg("streak was at risk and has been reset")
	}
	return u, nil
}

// UpdateStreaksFor updates every streak type fed by an activity category.
func (m *Maintainer) UpdateStreaksFor(ctx context.Context, userID string, c model.ActivityCategory, at time.Time, loc *time.Location) ([]StreakUpdate, error) {
	types := model.StreakTypesFor(c)
	out := make([]StreakUpdate, 0, len(types))
	for _, t := range types {
		u, err := m.UpdateStreak(ctx, userID, t, at, loc)
		if err != nil {
			return out, err
		}
		out = append(out, u)
	}
	return out, nil
}

// StreakStatus reports every streak of the user with its gap to now.
func (m *Maintainer) StreakStatus(ctx context.Context, userID string, now time.Time, loc *time.Location) ([]StreakCheck, error) {
	streaks, err := m.store.Streaks().List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]StreakCheck, 0, len(streaks))
	for _, s := range streaks {
		c, err := CheckStreak(s, now, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// RecomputeDaily derives and stores the summary of one local date.
func (m *Maintainer) RecomputeDaily(ctx context.Context, userID, date string, loc *time.Location) (*model.DailySummary, error) {
	from, to, err := temporal.DateBounds(date, loc)
	if err != nil {
		return nil, err
	}
	acts, err := m.store.Activities().ListBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	sum := Summarize(userID, date, acts)
	if err := m.store.Summaries().Upsert(ctx, sum); err != nil {
		return nil, fmt.Errorf("upsert summary: %w", err)
	}
	return &sum, nil
}
