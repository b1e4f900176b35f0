package model

import "time"

// HealthInfo carries the optional health attributes of a profile.
type HealthInfo struct {
	Age          *int     `json:"age,omitempty"`
	FitnessLevel string   `json:"fitnessLevel,omitempty"`
	Conditions   []string `json:"conditions,omitempty"`
	HeightCm     *float64 `json:"heightCm,omitempty"`
	WeightKg     *float64 `json:"weightKg,omitempty"`
}

// Preferences carries user settings relevant to the agent.
type Preferences struct {
	Timezone             string   `json:"timezone,omitempty"`
	Language             string   `json:"language,omitempty"`
	NotificationChannels []string `json:"notificationChannels,omitempty"`
}

// UserProfile is the agent-visible view of a user.
type UserProfile struct {
	UserID           string            `json:"userId"`
	DisplayName      string            `json:"displayName"`
	Health           HealthInfo        `json:"health"`
	Preferences      Preferences       `json:"preferences"`
	MessagingIDs     map[string]string `json:"messagingIds,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	ContextTouchedAt *time.Time        `json:"contextTouchedAt,omitempty"`
}

// Location resolves the profile timezone, falling back when unset or unknown.
func (p UserProfile) Location(fallback *time.Location) *time.Location {
	if p.Preferences.Timezone != "" {
		if loc, err := time.LoadLocation(p.Preferences.Timezone); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}

func (p UserProfile) Validate() error {
	if p.UserID == "" {
		return NewValidationError("userId", "required")
	}
	if p.Preferences.Timezone != "" {
		if _, err := time.LoadLocation(p.Preferences.Timezone); err != nil {
			return NewValidationError("preferences.timezone", "unknown timezone")
		}
	}
	if p.Health.WeightKg != nil && *p.Health.WeightKg <= 0 {
		return NewValidationError("health.weightKg", "must be positive")
	}
	if p.Health.HeightCm != nil && *p.Health.HeightCm <= 0 {
		return NewValidationError("health.heightCm", "must be positive")
	}
	return nil
}
