package tracking

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

func km(v float64) *float64 { return &v }

func TestProgress_Steps(t *testing.T) {
	today := []model.Activity{
		{Category: model.CategoryWalk, DistanceKm: km(5)},
		{Category: model.CategoryCycle, DistanceKm: km(20)},
	}
	p, ok := Progress(model.GoalDailySteps, today, today)
	require.True(t, ok)
	assert.Equal(t, 6500.0, p)

	today = append(today, model.Activity{Category: model.CategoryRun, DistanceKm: km(0.37)})
	p, _ = Progress(model.GoalDailySteps, today, today)
	assert.Equal(t, float64(StepsFromKm(5.37)), p)
	assert.Equal(t, 6981, StepsFromKm(5.37))
}

func TestProgress_OtherRules(t *testing.T) {
	today := []model.Activity{
		{Category: model.CategorySleep, SleepHours: km(6.5)},
		{Category: model.CategoryHydration, HydrationMl: km(250)},
		{Category: model.CategoryHydration, HydrationMl: km(500)},
	}
	week := append([]model.Activity{
		{Category: model.CategoryYoga},
		{Category: model.CategoryStrength},
		{Category: model.CategoryReading},
	}, today...)

	p, _ := Progress(model.GoalSleepTarget, today, week)
	assert.Equal(t, 6.5, p)
	p, _ = Progress(model.GoalDailyHydration, today, week)
	assert.Equal(t, 750.0, p)
	p, _ = Progress(model.GoalWeeklyWorkouts, today, week)
	assert.Equal(t, 2.0, p)

	_, ok := Progress(model.GoalWeightLoss, today, week)
	assert.False(t, ok)
	_, ok = Progress(model.GoalHeightTarget, today, week)
	assert.False(t, ok)
}

func TestApplyProgress(t *testing.T) {
	g := model.Goal{Type: model.GoalDailySteps, Target: 6000, Status: model.GoalActive}
	g = ApplyProgress(g, 6500)
	assert.Equal(t, model.GoalCompleted, g.Status)
	g = ApplyProgress(g, 100)
	assert.Equal(t, model.GoalActive, g.Status)

	paused := model.Goal{Type: model.GoalDailySteps, Target: 6000, Status: model.GoalPaused, CurrentProgress: 5}
	assert.Equal(t, paused, ApplyProgress(paused, 9000))
}

func TestNextStreak_Scenario(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)
	day := func(d int) time.Time { return time.Date(2025, 6, d, 9, 0, 0, 0, loc) }

	u, err := NextStreak(nil, "u1", model.StreakWorkout, day(10), loc)
	require.NoError(t, err)
	assert.True(t, u.Created)
	assert.Equal(t, 1, u.Streak.Count)
	assert.Equal(t, 1, u.Streak.Max)

	u, err = NextStreak(&u.Streak, "u1", model.StreakWorkout, day(11), loc)
	require.NoError(t, err)
	assert.Equal(t, 2, u.Streak.Count)
	assert.Equal(t, 2, u.Streak.Max)

	same, err := NextStreak(&u.Streak, "u1", model.StreakWorkout, day(11).Add(6*time.Hour), loc)
	require.NoError(t, err)
	assert.False(t, same.Changed)
	assert.Equal(t, 2, same.Streak.Count)

	// Skip two days.
	u, err = NextStreak(&u.Streak, "u1", model.StreakWorkout, day(14), loc)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Streak.Count)
	assert.Equal(t, 2, u.Streak.Max)
	assert.Equal(t, 3, u.Gap)
	assert.True(t, u.AtRisk)
	assert.Equal(t, "2025-06-14", u.Streak.LastActivityDate)
}

func TestNextStreak_MaxNeverBelowCount(t *testing.T) {
	loc := time.UTC
	var s *model.Streak
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, loc)
	gaps := []int{0, 1, 1, 0, 3, 1, 1, 1, 1, 2, 1, 0, 0, 1}
	at := start
	prevCount := 0
	for i, g := range gaps {
		at = at.AddDate(0, 0, g)
		u, err := NextStreak(s, "u1", model.StreakLogging, at, loc)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, u.Streak.Max, u.Streak.Count, "step %d", i)
		assert.LessOrEqual(t, u.Streak.Count-prevCount, 1, "step %d", i)
		prevCount = u.Streak.Count
		st := u.Streak
		s = &st
	}
}

func TestNextStreak_UsesLocalCalendarDay(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)
	// 23:30 UTC on the 10th is already the 11th in Manila.
	prev := &model.Streak{UserID: "u1", Type: model.StreakHydration, Count: 3, Max: 3, LastActivityDate: "2025-06-10"}
	u, err := NextStreak(prev, "u1", model.StreakHydration, time.Date(2025, 6, 10, 23, 30, 0, 0, time.UTC), loc)
	require.NoError(t, err)
	assert.Equal(t, 4, u.Streak.Count)
	assert.Equal(t, "2025-06-11", u.Streak.LastActivityDate)
}

func TestCheckStreak(t *testing.T) {
	s := model.Streak{Type: model.StreakSleep, Count: 4, Max: 4, LastActivityDate: "2025-06-10"}
	c, err := CheckStreak(s, time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.False(t, c.AtRisk)
	c, err = CheckStreak(s, time.Date(2025, 6, 12, 8, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.True(t, c.AtRisk)
	assert.Equal(t, 2, c.Gap)
}

func TestSummarize(t *testing.T) {
	acts := []model.Activity{
		{Category: model.CategoryWalk, DistanceKm: km(5), DurationMin: km(50), CaloriesBurned: km(200)},
		{Category: model.CategoryCycle, DistanceKm: km(10), DurationMin: km(30)},
		{Category: model.CategoryMeal, CaloriesConsumed: km(600)},
		{Category: model.CategoryHydration, HydrationMl: km(500)},
	}
	s := Summarize("u1", "2025-06-11", acts)
	assert.Equal(t, 4, s.ActivityCount)
	assert.Equal(t, 2, s.WorkoutCount)
	assert.Equal(t, 80.0, s.ExerciseMinutes)
	assert.Equal(t, 15.0, s.DistanceKm)
	assert.Equal(t, 6500, s.Steps)
	assert.Equal(t, 600.0, s.CaloriesConsumed)
	assert.Equal(t, 500.0, s.HydrationMl)
}
