package policy

import "github.com/clearway/sentinel/internal/domain"

// Geo verdict reasons.
const (
	GeoReasonCountryBlocked = "country blocked"
	GeoReasonRegionBlocked  = "region blocked"
	GeoReasonAllowList      = "allow-list restriction"
)

// GeoVerdict is the outcome of geographic rule evaluation.
type GeoVerdict struct {
	Allowed bool
	Reason  string
	// Matched is the rule that produced a denial, when one did.
	Matched *domain.GeographicRule
	// GeofenceSkipped counts geofence rules encountered. Geofence evaluation
	// is not implemented; callers log the gap rather than silently ignoring it.
	GeofenceSkipped int
}

// EvaluateGeoRules applies an organization's rules to the request country and
// region. Rules must already be filtered to active and sorted by priority
// descending. A block rule matching the request denies immediately; if any
// allow-list rules exist, the request must match one of them.
func EvaluateGeoRules(rules []domain.GeographicRule, country, region string) GeoVerdict {
	verdict := GeoVerdict{Allowed: true}
	var allowCountries, allowRegions []string

	for i := range rules {
		rule := &rules[i]
		if !rule.IsActive {
			continue
		}
		switch rule.RuleType {
		case domain.RuleBlockCountry:
			if country != "" && rule.RuleValue == country {
				return GeoVerdict{Reason: GeoReasonCountryBlocked, Matched: rule, GeofenceSkipped: verdict.GeofenceSkipped}
			}
		case domain.RuleBlockRegion:
			if region != "" && rule.RuleValue == region {
				return GeoVerdict{Reason: GeoReasonRegionBlocked, Matched: rule, GeofenceSkipped: verdict.GeofenceSkipped}
			}
		case domain.RuleAllowCountry:
			allowCountries = append(allowCountries, rule.RuleValue)
		case domain.RuleAllowRegion:
			allowRegions = append(allowRegions, rule.RuleValue)
		case domain.RuleGeofence:
			verdict.GeofenceSkipped++
		}
	}

	if len(allowCountries) > 0 && !contains(allowCountries, country) {
		return GeoVerdict{Reason: GeoReasonAllowList, GeofenceSkipped: verdict.GeofenceSkipped}
	}
	if len(allowRegions) > 0 && region != "" && !contains(allowRegions, region) {
		return GeoVerdict{Reason: GeoReasonAllowList, GeofenceSkipped: verdict.GeofenceSkipped}
	}

	return verdict
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
