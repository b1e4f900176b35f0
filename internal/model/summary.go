package model

import "time"

// DailySummary aggregates one local calendar day of activities. It is always
// recomputed from the underlying activities, never incremented.
type DailySummary struct {
	UserID           string    `json:"userId"`
	Date             string    `json:"date"`
	ActivityCount    int       `json:"activityCount"`
	WorkoutCount     int       `json:"workoutCount"`
	ExerciseMinutes  float64   `json:"exerciseMinutes"`
	DistanceKm       float64   `json:"distanceKm"`
	Steps            int       `json:"steps"`
	CaloriesBurned   float64   `json:"caloriesBurned"`
	CaloriesConsumed float64   `json:"caloriesConsumed"`
	HydrationMl      float64   `json:"hydrationMl"`
	SleepHours       float64   `json:"sleepHours"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
