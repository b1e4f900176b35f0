// Package tracking derives goal progress, streaks and daily summaries from
// the activity log. Progress is always re-derived from source records, never
// incremented, so repeated or concurrent runs converge on the same values.
package tracking

import (
	"math"
	"time"

	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/temporal"
)

// StepsPerKm converts walked or run distance into an estimated step count.
const StepsPerKm = 1300

// AtRiskGap is the day gap from which a streak is flagged for notification.
const AtRiskGap = 2

func StepsFromKm(km float64) int {
	return int(math.Round(km * StepsPerKm))
}

// HasRule reports whether progress for t is derived from activities.
func HasRule(t model.GoalType) bool {
	switch t {
	case model.GoalSleepTarget, model.GoalDailyHydration, model.GoalDailySteps, model.GoalWeeklyWorkouts:
		return true
	}
	return false
}

// Progress derives the progress of a goal of type t from today's and this
// week's activities. ok is false for goal types without a rule.
func Progress(t model.GoalType, today, week []model.Activity) (progress float64, ok bool) {
	switch t {
	case model.GoalSleepTarget:
		for _, a := range today {
			progress += deref(a.SleepHours)
		}
	case model.GoalDailyHydration:
		for _, a := range today {
			progress += deref(a.HydrationMl)
		}
	case model.GoalDailySteps:
		var km float64
		for _, a := range today {
			if a.Category.CountsAsSteps() {
				km += deref(a.DistanceKm)
			}
		}
		progress = float64(StepsFromKm(km))
	case model.GoalWeeklyWorkouts:
		for _, a := range week {
			if a.Category.IsExercise() {
				progress++
			}
		}
	default:
		return 0, false
	}
	return progress, true
}

// ApplyProgress sets progress and derives the status. Paused goals are
// returned unchanged.
func ApplyProgress(g model.Goal, progress float64) model.Goal {
	if g.Status == model.GoalPaused {
		return g
	}
	g.CurrentProgress = progress
	if g.Reached() {
		g.Status = model.GoalCompleted
	} else {
		g.Status = model.GoalActive
	}
	return g
}

// StreakUpdate is the outcome of applying one activity day to a streak.
type StreakUpdate struct {
	Streak  model.Streak `json:"streak"`
	Created bool         `json:"created"`
	Changed bool         `json:"changed"`
	// Gap is the number of days since the previous activity date.
	Gap    int  `json:"gap"`
	AtRisk bool `json:"atRisk"`
}

// NextStreak applies an activity at `at` (local day in loc) to prev, which is
// nil when the user has no streak of that type yet. Activity days at or
// before the recorded last day leave the streak unchanged.
func NextStreak(prev *model.Streak, userID string, t model.StreakType, at time.Time, loc *time.Location) (StreakUpdate, error) {
	day := temporal.LocalDate(at, loc)
	if prev == nil {
		return StreakUpdate{
			Streak:  model.Streak{UserID: userID, Type: t, Count: 1, Max: 1, LastActivityDate: day, LastActivityAt: at.UTC()},
			Created: true,
			Changed: true,
		}, nil
	}

	s := *prev
	gap, err := temporal.DaysBetween(s.LastActivityDate, day)
	if err != nil {
		return StreakUpdate{}, err
	}
	u := StreakUpdate{Gap: gap, AtRisk: gap >= AtRiskGap}
	switch {
	case gap <= 0:
		u.Streak = s
		return u, nil
	case gap == 1:
		s.Count++
	default:
		s.Count = 1
	}
	if s.Count > s.Max {
		s.Max = s.Count
	}
	s.LastActivityDate = day
	s.LastActivityAt = at.UTC()
	u.Streak = s
	u.Changed = true
	return u, nil
}

// StreakCheck reports a streak's standing on a given day without changing it.
type StreakCheck struct {
	Streak model.Streak `json:"streak"`
	Gap    int          `json:"gap"`
	AtRisk bool         `json:"atRisk"`
}

func CheckStreak(s model.Streak, now time.Time, loc *time.Location) (StreakCheck, error) {
	gap, err := temporal.DaysBetween(s.LastActivityDate, temporal.LocalDate(now, loc))
	if err != nil {
		return StreakCheck{}, err
	}
	return StreakCheck{Streak: s, Gap: gap, AtRisk: gap >= AtRiskGap}, nil
}

// Summarize aggregates the activities of one local date.
func Summarize(userID, date string, acts []model.Activity) model.DailySummary {
	sum := model.DailySummary{UserID: userID, Date: date, ActivityCount: len(acts)}
	var stepKm float64
	for _, a := range acts {
		if a.Category.IsExercise() {
			sum.WorkoutCount++
			sum.ExerciseMinutes += deref(a.DurationMin)
		}
		if a.Category.CountsAsSteps() {
			stepKm += deref(a.DistanceKm)
		}
		sum.DistanceKm += deref(a.DistanceKm)
		sum.CaloriesBurned += deref(a.CaloriesBurned)
		sum.CaloriesConsumed += deref(a.CaloriesConsumed)
		sum.HydrationMl += deref(a.HydrationMl)
		sum.SleepHours += deref(a.SleepHours)
	}
	sum.Steps = StepsFromKm(stepKm)
	return sum
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
