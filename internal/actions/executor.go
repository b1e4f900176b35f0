package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/metrics"
	"github.com/gab-cat/cold-start-sub000/internal/model"
	"github.com/gab-cat/cold-start-sub000/internal/store"
	"github.com/gab-cat/cold-start-sub000/internal/temporal"
	"github.com/gab-cat/cold-start-sub000/internal/tracking"
)

// Tracker keeps derived goal and streak state in step with new activities.
type Tracker interface {
	RecomputeGoals(ctx context.Context, userID string, now time.Time, loc *time.Location) ([]model.Goal, error)
	UpdateStreak(ctx context.Context, userID string, t model.StreakType, at time.Time, loc *time.Location) (tracking.StreakUpdate, error)
	UpdateStreaksFor(ctx context.Context, userID string, c model.ActivityCategory, at time.Time, loc *time.Location) ([]tracking.StreakUpdate, error)
}

// ExecContext carries the turn's reference instant and the user's timezone.
type ExecContext struct {
	Now      time.Time
	Location *time.Location
	Source   model.Source
}

// Result describes what an action changed. Applied is false for no-ops such
// as an adjustment that references no known goal.
type Result struct {
	Applied  bool                   `json:"applied"`
	Note     string                 `json:"note,omitempty"`
	Activity *model.Activity        `json:"activity,omitempty"`
	Goal     *model.Goal            `json:"goal,omitempty"`
	Streak   *tracking.StreakUpdate `json:"streak,omitempty"`
	Profile  *model.UserProfile     `json:"profile,omitempty"`
}

// Executor applies decoded actions for one user. A *model.ValidationError
// concerns only the action at hand; any other error is a storage failure.
type Executor struct {
	store   store.Store
	tracker Tracker
	log     zerolog.Logger
}

func NewExecutor(s store.Store, tracker Tracker, log zerolog.Logger) *Executor {
	return &Executor{store: s, tracker: tracker, log: log}
}

func (e *Executor) Execute(ctx context.Context, userID string, a Action, ec ExecContext) (Result, error) {
	if ec.Location == nil {
		ec.Location = time.UTC
	}
	var (
		res Result
		err error
	)
	switch v := a.(type) {
	case LogActivity:
		res, err = e.logActivity(ctx, userID, v, ec)
	case UpdateStreak:
		res, err = e.updateStreak(ctx, userID, v, ec)
	case AdjustGoal:
		res, err = e.adjustGoal(ctx, userID, v)
	case TouchProfile:
		res, err = e.touchProfile(ctx, userID, ec)
	case UpdateWeight:
		res, err = e.updateWeight(ctx, userID, v)
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownOperation, a)
	}
	metrics.ObserveAction(string(a.Operation()), err == nil && res.Applied)
	return res, err
}

func (e *Executor) logActivity(ctx context.Context, userID string, a LogActivity, ec ExecContext) (Result, error) {
	source := ec.Source
	if source == "" {
		source = model.SourceChat
	}
	act := model.Activity{
		UserID:           userID,
		Category:         a.ActivityType,
		Name:             strings.TrimSpace(a.ActivityName),
		DurationMin:      a.DurationMin,
		DistanceKm:       a.DistanceKm,
		CaloriesBurned:   a.CaloriesBurned,
		CaloriesConsumed: a.CaloriesConsumed,
		Intensity:        a.Intensity,
		HydrationMl:      a.HydrationMl,
		SleepHours:       a.SleepHours,
		SleepQuality:     a.SleepQuality,
		MealType:         a.MealType,
		Mood:             a.Mood,
		WeightKg:         a.WeightKg,
		Note:             a.Note,
		Source:           source,
		LoggedAt:         ec.Now.UTC(),
	}
	if act.Name == "" {
		act.Name = DefaultActivityName(a.ActivityType)
	}
	act.StartedAt = e.resolveTime(userID, "timeStarted", a.TimeStarted, ec)
	act.EndedAt = e.resolveTime(userID, "timeEnded", a.TimeEnded, ec)
	if act.StartedAt != nil && act.EndedAt != nil && act.EndedAt.Before(*act.StartedAt) {
		e.log.Warn().Str("event", "time_unresolved").Str("user_id", userID).Str("field", "timeEnded").
			Time("started_at", *act.StartedAt).Time("ended_at", *act.EndedAt).Msg("end precedes start, dropping end time")
		metrics.IncTimeUnresolved("timeEnded")
		act.EndedAt = nil
	}
	act.DeriveDuration()
	if err := act.Validate(); err != nil {
		return Result{}, err
	}

	saved, err := e.store.Activities().Insert(ctx, act)
	if err != nil {
		return Result{}, fmt.Errorf("insert activity: %w", err)
	}

	// The insert is the source of truth; derived state is recomputable.
	if _, err := e.tracker.RecomputeGoals(ctx, userID, ec.Now, ec.Location); err != nil {
		e.log.Error().Stack().Err(err).Str("user_id", userID).Str("activity_id", saved.ID).Msg("goal recompute failed")
	}
	if _, err := e.tracker.UpdateStreaksFor(ctx, userID, saved.Category, saved.OccurredAt(), ec.Location); err != nil {
		e.log.Error().Stack().Err(err).Str("user_id", userID).Str("activity_id", saved.ID).Msg("streak update failed")
	}
	return Result{Applied: true, Activity: saved}, nil
}

// resolveTime turns a time field into an instant. Unresolvable values are
// dropped so the activity is still logged.
func (e *Executor) resolveTime(userID, field, text string, ec ExecContext) *time.Time {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	t, match, err := temporal.ResolveOrParse(text, ec.Now, ec.Location)
	if err != nil {
		e.log.Warn().Str("event", "time_unresolved").Str("user_id", userID).Str("field", field).
			Str("text", text).Str("timezone", ec.Location.String()).Msg("could not resolve time, dropping field")
		metrics.IncTimeUnresolved(field)
		return nil
	}
	e.log.Debug().Str("field", field).Str("text", text).Str("match", string(match)).Time("resolved", t).Msg("time resolved")
	return &t
}

func (e *Executor) updateStreak(ctx context.Context, userID string, a UpdateStreak, ec ExecContext) (Result, error) {
	u, err := e.tracker.UpdateStreak(ctx, userID, a.StreakType, ec.Now, ec.Location)
	if err != nil {
		return Result{}, err
	}
	return Result{Applied: true, Streak: &u}, nil
}

func (e *Executor) adjustGoal(ctx context.Context, userID string, a AdjustGoal) (Result, error) {
	g, err := e.findGoal(ctx, userID, a)
	if err != nil {
		return Result{}, err
	}
	if g == nil {
		e.log.Info().Str("user_id", userID).Str("goal_id", a.GoalID).Str("goal_type", string(a.GoalType)).
			Msg("goal adjustment references no known goal, skipping")
		return Result{Applied: false, Note: "no matching goal"}, nil
	}
	if !g.AgentAdjustable {
		return Result{}, model.NewValidationError("goalId", "goal "+g.ID+" is not agent-adjustable")
	}

	if a.NewTarget != nil {
		g.Target = *a.NewTarget
	}
	if a.Milestone != nil {
		g.Milestone = *a.Milestone
	}
	switch {
	case a.Status != nil:
		g.Status = *a.Status
	case g.Status != model.GoalPaused:
		g.Status = model.GoalActive
		if g.Reached() {
			g.Status = model.GoalCompleted
		}
	}
	prov := &model.GoalProvenance{Reasoning: a.Reasoning, Evidence: a.Evidence}
	if a.Confidence != nil {
		prov.Confidence = *a.Confidence
	}
	g.Provenance = prov

	if err := g.Validate(); err != nil {
		return Result{}, err
	}
	if err := e.store.Goals().Update(ctx, *g); err != nil {
		return Result{}, fmt.Errorf("update goal: %w", err)
	}
	return Result{Applied: true, Goal: g}, nil
}

// findGoal resolves the reference; nil means no goal matched.
func (e *Executor) findGoal(ctx context.Context, userID string, a AdjustGoal) (*model.Goal, error) {
	if a.GoalID != "" {
		g, err := e.store.Goals().Get(ctx, userID, a.GoalID)
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("get goal: %w", err)
		}
		if a.GoalType != "" && g.Type != a.GoalType {
			return nil, nil
		}
		return g, nil
	}
	goals, err := e.store.Goals().List(ctx, userID, model.GoalActive)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	// Newest active goal of the type wins.
	for i := len(goals) - 1; i >= 0; i-- {
		if goals[i].Type == a.GoalType {
			g := goals[i]
			return &g, nil
		}
	}
	return nil, nil
}

func (e *Executor) touchProfile(ctx context.Context, userID string, ec ExecContext) (Result, error) {
	err := e.store.Profiles().TouchContext(ctx, userID, ec.Now)
	if errors.Is(err, model.ErrNotFound) {
		return Result{}, model.NewValidationError("userId", "no profile for user")
	}
	if err != nil {
		return Result{}, fmt.Errorf("touch profile: %w", err)
	}
	return Result{Applied: true}, nil
}

func (e *Executor) updateWeight(ctx context.Context, userID string, a UpdateWeight) (Result, error) {
	p, err := e.store.Profiles().Get(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		return Result{}, model.NewValidationError("userId", "no profile for user")
	}
	if err != nil {
		return Result{}, fmt.Errorf("get profile: %w", err)
	}

	var weight float64
	if a.WeightKg != nil {
		weight = *a.WeightKg
	} else {
		if p.Health.WeightKg == nil {
			return Result{}, model.NewValidationError("weightChange", "no prior weight recorded to apply a change to")
		}
		weight = *p.Health.WeightKg + *a.WeightChange
	}
	if weight <= 0 {
		return Result{}, model.NewValidationError("weightKg", "resulting weight must be positive")
	}

	p.Health.WeightKg = &weight
	updated, err := e.store.Profiles().Update(ctx, *p)
	if err != nil {
		return Result{}, fmt.Errorf("update profile: %w", err)
	}

	goals, err := e.store.Goals().List(ctx, userID, model.GoalActive)
	if err != nil {
		return Result{}, fmt.Errorf("list goals: %w", err)
	}
	res := Result{Applied: true, Profile: updated}
	for _, g := range goals {
		if g.Type != model.GoalWeightLoss {
			continue
		}
		g.CurrentProgress = weight
		if g.Reached() {
			g.Status = model.GoalCompleted
		}
		if err := e.store.Goals().Update(ctx, g); err != nil {
			return Result{}, fmt.Errorf("update weight goal: %w", err)
		}
		gg := g
		res.Goal = &gg
	}
	return res, nil
}

var activityNames = map[model.ActivityCategory]string{
	model.CategoryWalk:       "Walk",
	model.CategoryRun:        "Run",
	model.CategoryCycle:      "Bike ride",
	model.CategorySwim:       "Swim",
	model.CategoryStrength:   "Strength training",
	model.CategoryYoga:       "Yoga session",
	model.CategoryHIIT:       "HIIT workout",
	model.CategorySports:     "Sports",
	model.CategoryWorkout:    "Workout",
	model.CategoryMeal:       "Meal",
	model.CategorySleep:      "Sleep",
	model.CategoryHydration:  "Water",
	model.CategoryReading:    "Reading",
	model.CategoryMeditation: "Meditation",
	model.CategoryGaming:     "Gaming",
	model.CategorySocial:     "Social time",
	model.CategoryChores:     "Chores",
	model.CategoryShopping:   "Shopping",
	model.CategoryCommute:    "Commute",
}

// DefaultActivityName is the label used when the model omits one.
func DefaultActivityName(c model.ActivityCategory) string {
	if n, ok := activityNames[c]; ok {
		return n
	}
	return "Activity"
}
