package policy

import (
	"time"

	"github.com/clearway/sentinel/internal/domain"
)

// Risk penalty weights. These are the single source of truth for both the
// interactive access check and the session enricher.
const (
	PenaltyUntrustedDevice = 30
	PenaltyAttackPattern   = 25 // flat, regardless of how many patterns fired
	PenaltySuspiciousIP    = 20

	// Enricher-only geography penalties.
	PenaltyRapidRelocation = 40
	PenaltyNewCountry      = 20

	MaxRiskScore = 100
)

// Decision thresholds. All comparisons are strict (score must exceed).
const (
	MFAThreshold               = 50
	IncidentThreshold          = 60
	HighSeverityThreshold      = 80
	SuspiciousSessionThreshold = 50
	NotifyThreshold            = 70
)

// Threat intel confidence tiers.
const (
	MaliciousConfidence  = 70 // > malicious: hard deny
	SuspiciousConfidence = 30 // > suspicious: risk signal only
)

// Risk reason strings surfaced to callers.
const (
	ReasonUntrustedDevice = "device not approved"
	ReasonSuspiciousIP    = "suspicious IP"
	ReasonRapidRelocation = "rapid location change"
	ReasonNewCountry      = "new country for user"
)

// ThreatLevel classifies an IP reputation lookup.
type ThreatLevel int

const (
	ThreatClean ThreatLevel = iota
	ThreatSuspicious
	ThreatMalicious
)

// ClassifyThreat maps a threat intel record to a level. Nil and expired
// records are clean.
func ClassifyThreat(rec *domain.ThreatIntelRecord, now time.Time) ThreatLevel {
	if rec == nil || rec.Expired(now) {
		return ThreatClean
	}
	switch {
	case rec.ConfidenceScore > MaliciousConfidence:
		return ThreatMalicious
	case rec.ConfidenceScore > SuspiciousConfidence:
		return ThreatSuspicious
	default:
		return ThreatClean
	}
}

// RiskSignals holds the evaluated inputs for the access-check aggregation.
type RiskSignals struct {
	DeviceTrusted  bool
	PatternReasons []string
	Threat         ThreatLevel
}

// AggregateRisk combines signals into an additive score capped at
// MaxRiskScore, with a human-readable reason per contributing signal.
func AggregateRisk(s RiskSignals) (int, []string) {
	var score int
	var reasons []string

	if !s.DeviceTrusted {
		score += PenaltyUntrustedDevice
		reasons = append(reasons, ReasonUntrustedDevice)
	}
	if len(s.PatternReasons) > 0 {
		score += PenaltyAttackPattern
		reasons = append(reasons, s.PatternReasons...)
	}
	if s.Threat == ThreatSuspicious {
		score += PenaltySuspiciousIP
		reasons = append(reasons, ReasonSuspiciousIP)
	}

	return CapScore(score), reasons
}

// CapScore clamps a score to [0, MaxRiskScore].
func CapScore(score int) int {
	if score > MaxRiskScore {
		return MaxRiskScore
	}
	if score < 0 {
		return 0
	}
	return score
}

// IncidentSeverity maps an aggregate score to the severity recorded when the
// monitoring threshold is crossed.
func IncidentSeverity(score int) domain.Severity {
	if score > HighSeverityThreshold {
		return domain.SeverityHigh
	}
	return domain.SeverityMedium
}

// RapidRelocationWindow is the default elapsed-time bound for the enricher's
// cross-country change penalty.
const RapidRelocationWindow = 30 * time.Minute

// SessionGeoSignals holds the enricher's inputs.
type SessionGeoSignals struct {
	PrevCountry    string
	PrevLastActive time.Time
	Country        string
	SeenCountry    bool // user has any prior session in Country
	ProxyOrHosting bool // connection classified as proxy or hosting
	Now            time.Time
}

// ScoreSessionGeo recomputes a session's risk: the shared suspicious-IP
// penalty for proxy/hosting connections plus the enricher-only geography
// rules, a cross-country change inside RapidRelocationWindow and a
// never-before-seen country.
func ScoreSessionGeo(s SessionGeoSignals) (int, []string) {
	var score int
	var reasons []string

	if s.ProxyOrHosting {
		score += PenaltySuspiciousIP
		reasons = append(reasons, ReasonSuspiciousIP)
	}
	if s.Country != "" {
		if s.PrevCountry != "" && s.PrevCountry != s.Country &&
			s.Now.Sub(s.PrevLastActive) < RapidRelocationWindow {
			score += PenaltyRapidRelocation
			reasons = append(reasons, ReasonRapidRelocation)
		}
		if !s.SeenCountry {
			score += PenaltyNewCountry
			reasons = append(reasons, ReasonNewCountry)
		}
	}

	return CapScore(score), reasons
}
