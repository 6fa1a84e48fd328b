package domain

import (
	"time"

	"github.com/google/uuid"
)

// PatternType identifies a behavioral attack pattern.
type PatternType string

const (
	PatternBruteForce          PatternType = "brute_force"
	PatternMultipleCountries   PatternType = "multiple_countries"
	PatternRapidLocationChange PatternType = "rapid_location_change"
)

// PatternAction is the configured effect of a triggered pattern.
type PatternAction string

const (
	ActionAlert      PatternAction = "alert"
	ActionRequireMFA PatternAction = "require_mfa"
	ActionBlock      PatternAction = "block"
)

// Restrictiveness orders actions so multiple triggered patterns can take the
// most restrictive one.
func (a PatternAction) Restrictiveness() int {
	switch a {
	case ActionBlock:
		return 3
	case ActionRequireMFA:
		return 2
	case ActionAlert:
		return 1
	default:
		return 0
	}
}

// ThresholdConfig holds the pattern-specific tuning parameters. Only the
// fields relevant to the pattern type are set.
type ThresholdConfig struct {
	MaxAttempts       int `json:"max_attempts,omitempty"`
	TimeWindowMinutes int `json:"time_window_minutes,omitempty"`
	MaxCountries      int `json:"max_countries,omitempty"`
	TimeWindowHours   int `json:"time_window_hours,omitempty"`
}

// AttackPattern is an organization-scoped behavioral detection rule.
type AttackPattern struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	PatternType    PatternType     `json:"pattern_type"`
	Threshold      ThresholdConfig `json:"threshold_config"`
	ActionType     PatternAction   `json:"action_type"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}
