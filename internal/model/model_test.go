package model

import (
	"errors"
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }

func TestActivityDeriveDuration(t *testing.T) {
	start := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	a := Activity{StartedAt: &start, EndedAt: &end}
	a.DeriveDuration()
	if a.DurationMin == nil || *a.DurationMin != 45 {
		t.Fatalf("expected 45 minutes, got %v", a.DurationMin)
	}

	explicit := Activity{StartedAt: &start, EndedAt: &end, DurationMin: f64(30)}
	explicit.DeriveDuration()
	if *explicit.DurationMin != 30 {
		t.Fatalf("explicit duration overwritten: %v", *explicit.DurationMin)
	}

	backwards := Activity{StartedAt: &end, EndedAt: &start}
	backwards.DeriveDuration()
	if backwards.DurationMin != nil {
		t.Fatalf("negative span must not produce a duration")
	}
}

func TestActivityValidate(t *testing.T) {
	ok := Activity{UserID: "u1", Category: CategoryWalk, Name: "Walk", DistanceKm: f64(5)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Activity{
		{Category: CategoryWalk, Name: "x"},
		{UserID: "u1", Category: "teleport", Name: "x"},
		{UserID: "u1", Category: CategoryRun, Name: " "},
		{UserID: "u1", Category: CategoryRun, Name: "x", DistanceKm: f64(-1)},
	}
	for i, a := range bad {
		err := a.Validate()
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}

	intensity := "extreme"
	a := Activity{UserID: "u1", Category: CategoryRun, Name: "x", Intensity: &intensity}
	var ve *ValidationError
	if err := a.Validate(); !errors.As(err, &ve) || ve.Field != "intensity" {
		t.Fatalf("expected intensity validation error, got %v", err)
	}
}

func TestActivityOccurredAt(t *testing.T) {
	logged := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	started := logged.Add(-3 * time.Hour)
	if got := (Activity{LoggedAt: logged}).OccurredAt(); !got.Equal(logged) {
		t.Fatalf("expected logged time, got %v", got)
	}
	if got := (Activity{LoggedAt: logged, StartedAt: &started}).OccurredAt(); !got.Equal(started) {
		t.Fatalf("expected start time, got %v", got)
	}
}

func TestStreakTypesFor(t *testing.T) {
	cases := map[ActivityCategory][]StreakType{
		CategoryRun:        {StreakWorkout, StreakLogging},
		CategoryYoga:       {StreakWorkout, StreakMindfulness, StreakLogging},
		CategoryMeditation: {StreakMindfulness, StreakLogging},
		CategoryHydration:  {StreakHydration, StreakLogging},
		CategoryMeal:       {StreakNutrition, StreakLogging},
		CategoryShopping:   {StreakLogging},
	}
	for c, want := range cases {
		got := StreakTypesFor(c)
		if len(got) != len(want) {
			t.Fatalf("%s: got %v want %v", c, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: got %v want %v", c, got, want)
			}
		}
	}
}

func TestGoalReached(t *testing.T) {
	steps := Goal{Type: GoalDailySteps, Target: 8000, CurrentProgress: 8000}
	if !steps.Reached() {
		t.Fatalf("steps goal at target should be reached")
	}
	weight := Goal{Type: GoalWeightLoss, Target: 70, CurrentProgress: 71}
	if weight.Reached() {
		t.Fatalf("weight above target should not be reached")
	}
	weight.CurrentProgress = 69.5
	if !weight.Reached() {
		t.Fatalf("weight below target should be reached")
	}
}

func TestProfileLocation(t *testing.T) {
	p := UserProfile{Preferences: Preferences{Timezone: "Asia/Manila"}}
	if got := p.Location(time.UTC).String(); got != "Asia/Manila" {
		t.Fatalf("unexpected location %s", got)
	}
	p.Preferences.Timezone = "Nowhere/Else"
	if got := p.Location(time.UTC); got != time.UTC {
		t.Fatalf("expected fallback, got %s", got)
	}
}
