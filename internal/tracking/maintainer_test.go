package tracking

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/store/sqlite"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "tracking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecomputeGoals_ReplacesProgressAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	m := NewMaintainer(s, zerolog.Nop())
	now := time.Date(2025, 6, 11, 18, 0, 0, 0, time.UTC)

	steps, err := s.Goals().Create(ctx, model.Goal{UserID: "u1", Type: model.GoalDailySteps, Target: 10000, Unit: "steps", Status: model.GoalActive})
	require.NoError(t, err)
	// A stale value from an earlier computation must be replaced, not added to.
	steps.CurrentProgress = 1234
	require.NoError(t, s.Goals().Update(ctx, *steps))

	_, err = s.Activities().Insert(ctx, model.Activity{UserID: "u1", Category: model.CategoryWalk, Name: "Walk", DistanceKm: km(5), LoggedAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	// Yesterday's walk does not count toward today.
	_, err = s.Activities().Insert(ctx, model.Activity{UserID: "u1", Category: model.CategoryWalk, Name: "Walk", DistanceKm: km(3), LoggedAt: now.AddDate(0, 0, -1)})
	require.NoError(t, err)

	changed, err := m.RecomputeGoals(ctx, "u1", now, time.UTC)
	require.NoError(t, err)
	require.Len(t, changed, 1)

	got, err := s.Goals().Get(ctx, "u1", steps.ID)
	require.NoError(t, err)
	assert.Equal(t, 6500.0, got.CurrentProgress)
	assert.Equal(t, model.GoalActive, got.Status)

	changed, err = m.RecomputeGoals(ctx, "u1", now, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, changed)
	again, err := s.Goals().Get(ctx, "u1", steps.ID)
	require.NoError(t, err)
	assert.Equal(t, got.CurrentProgress, again.CurrentProgress)
}

func TestRecomputeGoals_WeeklyWorkoutsCompletes(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	m := NewMaintainer(s, zerolog.Nop())
	// Wednesday; Monday and Tuesday count, last Sunday does not.
	now := time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC)
	g, err := s.Goals().Create(ctx, model.Goal{UserID: "u1", Type: model.GoalWeeklyWorkouts, Target: 2, Unit: "workouts", Status: model.GoalActive})
	require.NoError(t, err)
	for _, d := range []int{8, 9, 10} {
		_, err := s.Activities().Insert(ctx, model.Activity{UserID: "u1", Category: model.CategoryRun, Name: "Run", LoggedAt: time.Date(2025, 6, d, 7, 0, 0, 0, time.UTC)})
		require.NoError(t, err)
	}

	_, err = m.RecomputeGoals(ctx, "u1", now, time.UTC)
	require.NoError(t, err)
	got, err := s.Goals().Get(ctx, "u1", g.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.CurrentProgress)
	assert.Equal(t, model.GoalCompleted, got.Status)
}

func TestUpdateStreaksFor(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	m := NewMaintainer(s, zerolog.Nop())
	at := time.Date(2025, 6, 11, 7, 0, 0, 0, time.UTC)

	updates, err := m.UpdateStreaksFor(ctx, "u1", model.CategoryYoga, at, time.UTC)
	require.NoError(t, err)
	require.Len(t, updates, 3)

	_, err = m.UpdateStreaksFor(ctx, "u1", model.CategoryRun, at.AddDate(0, 0, 1), time.UTC)
	require.NoError(t, err)

	workout, err := s.Streaks().Get(ctx, "u1", model.StreakWorkout)
	require.NoError(t, err)
	assert.Equal(t, 2, workout.Count)
	mind, err := s.Streaks().Get(ctx, "u1", model.StreakMindfulness)
	require.NoError(t, err)
	assert.Equal(t, 1, mind.Count)

	checks, err := m.StreakStatus(ctx, "u1", at.AddDate(0, 0, 3), time.UTC)
	require.NoError(t, err)
	atRisk := 0
	for _, c := range checks {
		if c.AtRisk {
			atRisk++
		}
	}
	assert.Equal(t, 3, atRisk)
}

func TestRecomputeDaily(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	m := NewMaintainer(s, zerolog.Nop())
	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)

	// 17:00 UTC on the 10th is 01:00 on the 11th in Manila.
	_, err = s.Activities().Insert(ctx, model.Activity{UserID: "u1", Category: model.CategoryHydration, Name: "Water", HydrationMl: km(300), LoggedAt: time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, err = s.Activities().Insert(ctx, model.Activity{UserID: "u1", Category: model.CategoryHydration, Name: "Water", HydrationMl: km(200), LoggedAt: time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	sum, err := m.RecomputeDaily(ctx, "u1", "2025-06-11", loc)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.ActivityCount)
	assert.Equal(t, 300.0, sum.HydrationMl)

	stored, err := s.Summaries().Get(ctx, "u1", "2025-06-11")
	require.NoError(t, err)
	assert.Equal(t, 300.0, stored.HydrationMl)
}
