// Package actions holds the closed set of domain operations the reasoning
// engine may propose, the decode boundary that constructs them from model
// JSON, and the executor that applies them.
package actions

import (
	"errors"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// Operation is the wire name of an action.
type Operation string

const (
	OpLogActivity  Operation = "activity-log"
	OpUpdateStreak Operation = "streak-update"
	OpAdjustGoal   Operation = "goal-adjust"
	OpTouchProfile Operation = "profile-context-touch"
	OpUpdateWeight Operation = "weight-update"
)

// Operations lists every operation the executor accepts.
var Operations = []Operation{OpLogActivity, OpUpdateStreak, OpAdjustGoal, OpTouchProfile, OpUpdateWeight}

// ErrUnknownOperation marks an operation name outside Operations.
var ErrUnknownOperation = errors.New("unknown operation")

// Action is implemented only by the variants in this package.
type Action interface {
	Operation() Operation
	validate() error
}

// LogActivity records one activity. Time fields are natural-language or
// timestamp strings resolved in the user's timezone.
type LogActivity struct {
	ActivityType     model.ActivityCategory `json:"activityType"`
	ActivityName     string                 `json:"activityName,omitempty"`
	DurationMin      *float64               `json:"durationMin,omitempty"`
	DistanceKm       *float64               `json:"distanceKm,omitempty"`
	CaloriesBurned   *float64               `json:"caloriesBurned,omitempty"`
	CaloriesConsumed *float64               `json:"caloriesConsumed,omitempty"`
	Intensity        *string                `json:"intensity,omitempty"`
	HydrationMl      *float64               `json:"hydrationMl,omitempty"`
	SleepHours       *float64               `json:"sleepHours,omitempty"`
	SleepQuality     *string                `json:"sleepQuality,omitempty"`
	MealType         *string                `json:"mealType,omitempty"`
	Mood             *string                `json:"mood,omitempty"`
	WeightKg         *float64               `json:"weightKg,omitempty"`
	TimeStarted      string                 `json:"timeStarted,omitempty"`
	TimeEnded        string                 `json:"timeEnded,omitempty"`
	Note             string                 `json:"note,omitempty"`
}

// UpdateStreak counts today toward a streak.
type UpdateStreak struct {
	StreakType model.StreakType `json:"streakType"`
}

// AdjustGoal changes an agent-adjustable goal referenced by id or by type.
type AdjustGoal struct {
	GoalID     string            `json:"goalId,omitempty"`
	GoalType   model.GoalType    `json:"goalType,omitempty"`
	NewTarget  *float64          `json:"newTarget,omitempty"`
	Milestone  *string           `json:"milestone,omitempty"`
	Status     *model.GoalStatus `json:"status,omitempty"`
	Reasoning  string            `json:"reasoning,omitempty"`
	Evidence   []string          `json:"evidence,omitempty"`
	Confidence *float64          `json:"confidence,omitempty"`
}

// TouchProfile refreshes the profile's context timestamp.
type TouchProfile struct{}

// UpdateWeight sets an absolute weight or applies a signed change.
type UpdateWeight struct {
	WeightKg     *float64 `json:"weightKg,omitempty"`
	WeightChange *float64 `json:"weightChange,omitempty"`
}

func (LogActivity) Operation() Operation  { return OpLogActivity }
func (UpdateStreak) Operation() Operation { return OpUpdateStreak }
func (AdjustGoal) Operation() Operation   { return OpAdjustGoal }
func (TouchProfile) Operation() Operation { return OpTouchProfile }
func (UpdateWeight) Operation() Operation { return OpUpdateWeight }

func (a LogActivity) validate() error {
	if !a.ActivityType.Valid() {
		return model.NewValidationError("activityType", "unknown activity type "+string(a.ActivityType))
	}
	for field, v := range map[string]*float64{
		"durationMin": a.DurationMin, "distanceKm": a.DistanceKm, "caloriesBurned": a.CaloriesBurned,
		"caloriesConsumed": a.CaloriesConsumed, "hydrationMl": a.HydrationMl, "sleepHours": a.SleepHours,
		"weightKg": a.WeightKg,
	} {
		if v != nil && *v < 0 {
			return model.NewValidationError(field, "must not be negative")
		}
	}
	return nil
}

func (a UpdateStreak) validate() error {
	if !a.StreakType.Valid() {
		return model.NewValidationError("streakType", "unknown streak type "+string(a.StreakType))
	}
	return nil
}

func (a AdjustGoal) validate() error {
	if a.GoalID == "" && a.GoalType == "" {
		return model.NewValidationError("goalId", "goalId or goalType is required")
	}
	if a.GoalType != "" && !a.GoalType.Valid() {
		return model.NewValidationError("goalType", "unknown goal type "+string(a.GoalType))
	}
	if a.NewTarget == nil && a.Milestone == nil && a.Status == nil {
		return model.NewValidationError("newTarget", "nothing to adjust")
	}
	if a.NewTarget != nil && *a.NewTarget <= 0 {
		return model.NewValidationError("newTarget", "must be positive")
	}
	if a.Status != nil && !a.Status.Valid() {
		return model.NewValidationError("status", "unknown status "+string(*a.Status))
	}
	if a.Confidence != nil && (*a.Confidence < 0 || *a.Confidence > 1) {
		return model.NewValidationError("confidence", "must be within [0,1]")
	}
	return nil
}

func (TouchProfile) validate() error { return nil }

func (a UpdateWeight) validate() error {
	switch {
	case a.WeightKg == nil && a.WeightChange == nil:
		return model.NewValidationError("weightKg", "weightKg or weightChange is required")
	case a.WeightKg != nil && a.WeightChange != nil:
		return model.NewValidationError("weightKg", "weightKg and weightChange are mutually exclusive")
	case a.WeightKg != nil && *a.WeightKg <= 0:
		return model.NewValidationError("weightKg", "must be positive")
	}
	return nil
}
