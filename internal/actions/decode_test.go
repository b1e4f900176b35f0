package actions

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

func TestDecode_Variants(t *testing.T) {
	a, err := Decode("activity-log", json.RawMessage(`{"activityType":"walk","distanceKm":5,"timeStarted":"this morning"}`))
	require.NoError(t, err)
	log, ok := a.(LogActivity)
	require.True(t, ok)
	assert.Equal(t, model.CategoryWalk, log.ActivityType)
	assert.Equal(t, 5.0, *log.DistanceKm)
	assert.Equal(t, OpLogActivity, a.Operation())

	a, err = Decode("streak-update", json.RawMessage(`{"streakType":"hydration"}`))
	require.NoError(t, err)
	assert.Equal(t, UpdateStreak{StreakType: model.StreakHydration}, a)

	a, err = Decode("goal-adjust", json.RawMessage(`{"goalType":"daily-steps","newTarget":9000,"confidence":0.8}`))
	require.NoError(t, err)
	assert.Equal(t, model.GoalDailySteps, a.(AdjustGoal).GoalType)

	for _, params := range []string{``, `null`, `{}`} {
		a, err = Decode("profile-context-touch", json.RawMessage(params))
		require.NoError(t, err, "params %q", params)
		assert.Equal(t, TouchProfile{}, a)
	}

	a, err = Decode("weight-update", json.RawMessage(`{"weightChange":-1.5}`))
	require.NoError(t, err)
	assert.Equal(t, -1.5, *a.(UpdateWeight).WeightChange)
}

func TestDecode_UnknownOperation(t *testing.T) {
	_, err := Decode("delete-everything", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOperation))
	assert.False(t, model.IsValidationError(err))
}

func TestDecode_RejectsShapeMismatch(t *testing.T) {
	cases := map[string]struct {
		op     string
		params string
	}{
		"unknown field":          {"activity-log", `{"activityType":"walk","steps":1000}`},
		"wrong type":             {"activity-log", `{"activityType":"walk","distanceKm":"five"}`},
		"unknown category":       {"activity-log", `{"activityType":"teleport"}`},
		"negative distance":      {"activity-log", `{"activityType":"run","distanceKm":-2}`},
		"unknown streak":         {"streak-update", `{"streakType":"flossing"}`},
		"goal without reference": {"goal-adjust", `{"newTarget":5}`},
		"goal nothing to change": {"goal-adjust", `{"goalId":"g1"}`},
		"goal bad status":        {"goal-adjust", `{"goalId":"g1","status":"archived"}`},
		"weight both forms":      {"weight-update", `{"weightKg":70,"weightChange":-1}`},
		"weight neither form":    {"weight-update", `{}`},
		"touch with params":      {"profile-context-touch", `{"force":true}`},
		"not an object":          {"streak-update", `["workout"]`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(tc.op, json.RawMessage(tc.params))
			require.Error(t, err)
			var ve *model.ValidationError
			assert.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
		})
	}
}
