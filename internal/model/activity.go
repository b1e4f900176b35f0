package model

import (
	"fmt"
	"strings"
	"time"
)

// ActivityCategory classifies a logged activity.
type ActivityCategory string

const (
	// exercise
	CategoryWalk     ActivityCategory = "walk"
	CategoryRun      ActivityCategory = "run"
	CategoryCycle    ActivityCategory = "cycle"
	CategorySwim     ActivityCategory = "swim"
	CategoryStrength ActivityCategory = "strength"
	CategoryYoga     ActivityCategory = "yoga"
	CategoryHIIT     ActivityCategory = "hiit"
	CategorySports   ActivityCategory = "sports"
	CategoryWorkout  ActivityCategory = "workout"

	CategoryMeal      ActivityCategory = "meal"
	CategorySleep     ActivityCategory = "sleep"
	CategoryHydration ActivityCategory = "hydration"

	// leisure
	CategoryReading    ActivityCategory = "reading"
	CategoryMeditation ActivityCategory = "meditation"
	CategoryGaming     ActivityCategory = "gaming"
	CategorySocial     ActivityCategory = "social"

	// errands
	CategoryChores   ActivityCategory = "chores"
	CategoryShopping ActivityCategory = "shopping"
	CategoryCommute  ActivityCategory = "commute"
)

// ActivityCategories lists every accepted category.
var ActivityCategories = []ActivityCategory{
	CategoryWalk, CategoryRun, CategoryCycle, CategorySwim, CategoryStrength, CategoryYoga,
	CategoryHIIT, CategorySports, CategoryWorkout, CategoryMeal, CategorySleep, CategoryHydration,
	CategoryReading, CategoryMeditation, CategoryGaming, CategorySocial, CategoryChores,
	CategoryShopping, CategoryCommute,
}

func (c ActivityCategory) Valid() bool {
	for _, k := range ActivityCategories {
		if k == c {
			return true
		}
	}
	return false
}

// IsExercise reports whether the category counts as a workout.
func (c ActivityCategory) IsExercise() bool {
	switch c {
	case CategoryWalk, CategoryRun, CategoryCycle, CategorySwim, CategoryStrength,
		CategoryYoga, CategoryHIIT, CategorySports, CategoryWorkout:
		return true
	}
	return false
}

// CountsAsSteps reports whether distance for this category converts to steps.
func (c ActivityCategory) CountsAsSteps() bool {
	return c == CategoryWalk || c == CategoryRun
}

// Source records which surface created an activity.
type Source string

const (
	SourceChat      Source = "chat"
	SourceDashboard Source = "dashboard"
)

// Accepted values for the enumerated activity attributes.
var (
	Intensities    = []string{"low", "moderate", "high"}
	MealTypes      = []string{"breakfast", "lunch", "dinner", "snack"}
	SleepQualities = []string{"poor", "fair", "good", "excellent"}
)

// Activity is a single logged event. Measurements are optional.
type Activity struct {
	ID               string           `json:"id"`
	UserID           string           `json:"userId"`
	Category         ActivityCategory `json:"category"`
	Name             string           `json:"name"`
	DurationMin      *float64         `json:"durationMin,omitempty"`
	DistanceKm       *float64         `json:"distanceKm,omitempty"`
	CaloriesBurned   *float64         `json:"caloriesBurned,omitempty"`
	CaloriesConsumed *float64         `json:"caloriesConsumed,omitempty"`
	Intensity        *string          `json:"intensity,omitempty"`
	HydrationMl      *float64         `json:"hydrationMl,omitempty"`
	SleepHours       *float64         `json:"sleepHours,omitempty"`
	SleepQuality     *string          `json:"sleepQuality,omitempty"`
	MealType         *string          `json:"mealType,omitempty"`
	Mood             *string          `json:"mood,omitempty"`
	WeightKg         *float64         `json:"weightKg,omitempty"`
	StartedAt        *time.Time       `json:"startedAt,omitempty"`
	EndedAt          *time.Time       `json:"endedAt,omitempty"`
	Note             string           `json:"note,omitempty"`
	Source           Source           `json:"source"`
	LoggedAt         time.Time        `json:"loggedAt"`
}

// OccurredAt is the instant used for day and week windows: the start time when
// known, otherwise the logging time.
func (a Activity) OccurredAt() time.Time {
	if a.StartedAt != nil {
		return *a.StartedAt
	}
	return a.LoggedAt
}

// DeriveDuration fills DurationMin from the start/end span when it is absent.
// A non-positive span leaves the duration unset.
func (a *Activity) DeriveDuration() {
	if a.DurationMin != nil || a.StartedAt == nil || a.EndedAt == nil {
		return
	}
	span := a.EndedAt.Sub(*a.StartedAt)
	if span <= 0 {
		return
	}
	mins := span.Minutes()
	a.DurationMin = &mins
}

// Validate checks the invariants every stored activity must hold.
func (a Activity) Validate() error {
	if a.UserID == "" {
		return NewValidationError("userId", "required")
	}
	if !a.Category.Valid() {
		return NewValidationError("category", fmt.Sprintf("unknown category %q", a.Category))
	}
	if strings.TrimSpace(a.Name) == "" {
		return NewValidationError("name", "required")
	}
	for field, v := range map[string]*float64{
		"durationMin": a.DurationMin, "distanceKm": a.DistanceKm, "caloriesBurned": a.CaloriesBurned,
		"caloriesConsumed": a.CaloriesConsumed, "hydrationMl": a.HydrationMl, "sleepHours": a.SleepHours,
		"weightKg": a.WeightKg,
	} {
		if v != nil && *v < 0 {
			return NewValidationError(field, "must not be negative")
		}
	}
	if err := oneOf("intensity", a.Intensity, Intensities); err != nil {
		return err
	}
	if err := oneOf("mealType", a.MealType, MealTypes); err != nil {
		return err
	}
	if err := oneOf("sleepQuality", a.SleepQuality, SleepQualities); err != nil {
		return err
	}
	if a.StartedAt != nil && a.EndedAt != nil && a.EndedAt.Before(*a.StartedAt) {
		return NewValidationError("endedAt", "must not precede startedAt")
	}
	return nil
}

func oneOf(field string, v *string, allowed []string) error {
	if v == nil {
		return nil
	}
	for _, a := range allowed {
		if *v == a {
			return nil
		}
	}
	return NewValidationError(field, fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")))
}

// Describe renders a compact one-line summary used for prompts and memory text.
func (a Activity) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", a.Category, a.Name)
	if a.DistanceKm != nil {
		fmt.Fprintf(&b, ", %.1f km", *a.DistanceKm)
	}
	if a.DurationMin != nil {
		fmt.Fprintf(&b, ", %.0f min", *a.DurationMin)
	}
	if a.HydrationMl != nil {
		fmt.Fprintf(&b, ", %.0f ml", *a.HydrationMl)
	}
	if a.SleepHours != nil {
		fmt.Fprintf(&b, ", %.1f h sleep", *a.SleepHours)
	}
	if a.CaloriesConsumed != nil {
		fmt.Fprintf(&b, ", %.0f kcal eaten", *a.CaloriesConsumed)
	}
	if a.CaloriesBurned != nil {
		fmt.Fprintf(&b, ", %.0f kcal burned", *a.CaloriesBurned)
	}
	if a.Intensity != nil {
		fmt.Fprintf(&b, ", %s intensity", *a.Intensity)
	}
	if a.Mood != nil {
		fmt.Fprintf(&b, ", mood %s", *a.Mood)
	}
	if a.Note != "" {
		fmt.Fprintf(&b, " (%s)", a.Note)
	}
	return b.String()
}
