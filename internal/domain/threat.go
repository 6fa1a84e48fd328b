package domain

import "time"

// ThreatIntelRecord is an externally sourced IP reputation entry. The engine
// only reads these; a record is inert once ExpiresAt has passed.
type ThreatIntelRecord struct {
	IPAddress       string     `json:"ip_address"`
	ThreatType      string     `json:"threat_type"`
	ConfidenceScore int        `json:"confidence_score"`
	Source          string     `json:"source"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Expired reports whether the record is past its expiry at the given instant.
// Records without an expiry never expire.
func (r *ThreatIntelRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}
