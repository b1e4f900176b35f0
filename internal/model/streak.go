package model

import (
	"fmt"
	"time"
)

type StreakType string

const (
	StreakWorkout     StreakType = "workout"
	StreakHydration   StreakType = "hydration"
	StreakSleep       StreakType = "sleep"
	StreakNutrition   StreakType = "nutrition"
	StreakMindfulness StreakType = "mindfulness"
	StreakLogging     StreakType = "logging"
)

var StreakTypes = []StreakType{
	StreakWorkout, StreakHydration, StreakSleep, StreakNutrition, StreakMindfulness, StreakLogging,
}

func (t StreakType) Valid() bool {
	for _, k := range StreakTypes {
		if k == t {
			return true
		}
	}
	return false
}

// StreakTypesFor returns the streaks an activity of category c advances.
// Every activity advances the logging streak.
func StreakTypesFor(c ActivityCategory) []StreakType {
	var out []StreakType
	switch {
	case c.IsExercise():
		out = append(out, StreakWorkout)
	case c == CategoryHydration:
		out = append(out, StreakHydration)
	case c == CategorySleep:
		out = append(out, StreakSleep)
	case c == CategoryMeal:
		out = append(out, StreakNutrition)
	}
	if c == CategoryMeditation || c == CategoryYoga {
		out = append(out, StreakMindfulness)
	}
	return append(out, StreakLogging)
}

// Streak counts consecutive local days with at least one qualifying activity.
// LastActivityDate is a calendar date (YYYY-MM-DD) in the user's timezone.
type Streak struct {
	UserID           string     `json:"userId"`
	Type             StreakType `json:"type"`
	Count            int        `json:"count"`
	Max              int        `json:"max"`
	LastActivityDate string     `json:"lastActivityDate"`
	LastActivityAt   time.Time  `json:"lastActivityAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (s Streak) Describe() string {
	return fmt.Sprintf("%s streak: %d days (best %d, last %s)", s.Type, s.Count, s.Max, s.LastActivityDate)
}
