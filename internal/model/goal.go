package model

import (
	"fmt"
	"time"
)

type GoalType string

const (
	GoalDailySteps     GoalType = "daily-steps"
	GoalWeeklyWorkouts GoalType = "weekly-workouts"
	GoalWeightLoss     GoalType = "weight-loss"
	GoalSleepTarget    GoalType = "sleep-target"
	GoalDailyHydration GoalType = "daily-hydration"
	GoalHeightTarget   GoalType = "height-target"
)

// GoalTypes lists every accepted goal type.
var GoalTypes = []GoalType{
	GoalDailySteps, GoalWeeklyWorkouts, GoalWeightLoss, GoalSleepTarget, GoalDailyHydration, GoalHeightTarget,
}

func (t GoalType) Valid() bool {
	for _, k := range GoalTypes {
		if k == t {
			return true
		}
	}
	return false
}

// DefaultUnit is the unit a goal of this type is tracked in.
func (t GoalType) DefaultUnit() string {
	switch t {
	case GoalDailySteps:
		return "steps"
	case GoalWeeklyWorkouts:
		return "workouts"
	case GoalWeightLoss:
		return "kg"
	case GoalSleepTarget:
		return "h"
	case GoalDailyHydration:
		return "ml"
	case GoalHeightTarget:
		return "cm"
	}
	return ""
}

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
)

func (s GoalStatus) Valid() bool {
	return s == GoalActive || s == GoalCompleted || s == GoalPaused
}

// Actor identifies who created or last adjusted a record.
type Actor string

const (
	ActorUser  Actor = "user"
	ActorAgent Actor = "agent"
)

// GoalProvenance explains an agent-made change.
type GoalProvenance struct {
	Reasoning  string   `json:"reasoning"`
	Evidence   []string `json:"evidence,omitempty"`
	Confidence float64  `json:"confidence"`
}

// Goal is a user target with derived progress.
type Goal struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Type            GoalType        `json:"type"`
	Target          float64         `json:"target"`
	Unit            string          `json:"unit"`
	CurrentProgress float64         `json:"currentProgress"`
	Status          GoalStatus      `json:"status"`
	Milestone       string          `json:"milestone,omitempty"`
	AgentAdjustable bool            `json:"agentAdjustable"`
	CreatedBy       Actor           `json:"createdBy"`
	Provenance      *GoalProvenance `json:"provenance,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (g Goal) Validate() error {
	if g.UserID == "" {
		return NewValidationError("userId", "required")
	}
	if !g.Type.Valid() {
		return NewValidationError("type", fmt.Sprintf("unknown goal type %q", g.Type))
	}
	if g.Target <= 0 {
		return NewValidationError("target", "must be positive")
	}
	if !g.Status.Valid() {
		return NewValidationError("status", fmt.Sprintf("unknown status %q", g.Status))
	}
	if g.Provenance != nil && (g.Provenance.Confidence < 0 || g.Provenance.Confidence > 1) {
		return NewValidationError("provenance.confidence", "must be within [0,1]")
	}
	return nil
}

// Reached reports whether progress satisfies the target. Weight loss counts
// down, everything else counts up.
func (g Goal) Reached() bool {
	if g.Type == GoalWeightLoss {
		return g.CurrentProgress > 0 && g.CurrentProgress <= g.Target
	}
	return g.CurrentProgress >= g.Target
}

// Describe renders the goal for prompts and memory text.
func (g Goal) Describe() string {
	s := fmt.Sprintf("%s goal: %g/%g %s (%s)", g.Type, g.CurrentProgress, g.Target, g.Unit, g.Status)
	if g.Milestone != "" {
		s += ", milestone: " + g.Milestone
	}
	return s
}
