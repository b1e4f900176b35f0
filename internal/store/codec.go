package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// EncodeVector packs a vector as little-endian float32s.
func EncodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

// DecodeVector is the inverse of EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

// activityDetails holds the optional measurements stored as one JSON column.
type activityDetails struct {
	DurationMin      *float64 `json:"durationMin,omitempty"`
	DistanceKm       *float64 `json:"distanceKm,omitempty"`
	CaloriesBurned   *float64 `json:"caloriesBurned,omitempty"`
	CaloriesConsumed *float64 `json:"caloriesConsumed,omitempty"`
	Intensity        *string  `json:"intensity,omitempty"`
	HydrationMl      *float64 `json:"hydrationMl,omitempty"`
	SleepHours       *float64 `json:"sleepHours,omitempty"`
	SleepQuality     *string  `json:"sleepQuality,omitempty"`
	MealType         *string  `json:"mealType,omitempty"`
	Mood             *string  `json:"mood,omitempty"`
	WeightKg         *float64 `json:"weightKg,omitempty"`
	Note             string   `json:"note,omitempty"`
}

// EncodeActivityDetails extracts the measurement columns of a.
func EncodeActivityDetails(a model.Activity) ([]byte, error) {
	return json.Marshal(activityDetails{
		DurationMin: a.DurationMin, DistanceKm: a.DistanceKm, CaloriesBurned: a.CaloriesBurned,
		CaloriesConsumed: a.CaloriesConsumed, Intensity: a.Intensity, HydrationMl: a.HydrationMl,
		SleepHours: a.SleepHours, SleepQuality: a.SleepQuality, MealType: a.MealType, Mood: a.Mood,
		WeightKg: a.WeightKg, Note: a.Note,
	})
}

// DecodeActivityDetails fills the measurement fields of a from b.
func DecodeActivityDetails(b []byte, a *model.Activity) error {
	if len(b) == 0 {
		return nil
	}
	var d activityDetails
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("decode activity details: %w", err)
	}
	a.DurationMin, a.DistanceKm, a.CaloriesBurned = d.DurationMin, d.DistanceKm, d.CaloriesBurned
	a.CaloriesConsumed, a.Intensity, a.HydrationMl = d.CaloriesConsumed, d.Intensity, d.HydrationMl
	a.SleepHours, a.SleepQuality, a.MealType = d.SleepHours, d.SleepQuality, d.MealType
	a.Mood, a.WeightKg, a.Note = d.Mood, d.WeightKg, d.Note
	return nil
}
