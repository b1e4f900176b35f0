package actions

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// Decode constructs an Action from an operation name and its JSON params.
// Unknown operations fail with ErrUnknownOperation; any shape mismatch,
// including unknown fields, fails with a *model.ValidationError.
func Decode(operation string, params json.RawMessage) (Action, error) {
	var a Action
	switch Operation(operation) {
	case OpLogActivity:
		var v LogActivity
		if err := strictUnmarshal(params, &v); err != nil {
			return nil, err
		}
		a = v
	case OpUpdateStreak:
		var v UpdateStreak
		if err := strictUnmarshal(params, &v); err != nil {
			return nil, err
		}
		a = v
	case OpAdjustGoal:
		var v AdjustGoal
		if err := strictUnmarshal(params, &v); err != nil {
			return nil, err
		}
		a = v
	case OpTouchProfile:
		var v TouchProfile
		if err := strictUnmarshal(params, &v); err != nil {
			return nil, err
		}
		a = v
	case OpUpdateWeight:
		var v UpdateWeight
		if err := strictUnmarshal(params, &v); err != nil {
			return nil, err
		}
		a = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, operation)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func strictUnmarshal(params json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return model.NewValidationError("params", err.Error())
	}
	if dec.More() {
		return model.NewValidationError("params", "trailing data after params object")
	}
	return nil
}
