package domain

import (
	"time"

	"github.com/google/uuid"
)

// GeoRuleType identifies the kind of geographic rule.
type GeoRuleType string

const (
	RuleAllowCountry GeoRuleType = "allow_country"
	RuleBlockCountry GeoRuleType = "block_country"
	RuleAllowRegion  GeoRuleType = "allow_region"
	RuleBlockRegion  GeoRuleType = "block_region"
	// RuleGeofence is recognized in configuration but has no evaluation logic.
	// Coordinate-based matching needs product definition before it is built.
	RuleGeofence GeoRuleType = "geofence"
)

// GeographicRule is an organization-scoped allow/block rule.
// Rules are evaluated in descending priority order; mutation happens only
// through the admin surface.
type GeographicRule struct {
	ID             uuid.UUID   `json:"id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	RuleType       GeoRuleType `json:"rule_type"`
	RuleValue      string      `json:"rule_value"`
	IsActive       bool        `json:"is_active"`
	Priority       int         `json:"priority"`
	CreatedAt      time.Time   `json:"created_at"`
}
