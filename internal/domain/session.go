package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxPreviousIPs bounds the per-session IP history.
const MaxPreviousIPs = 10

// UserSession is the live session record, unique per SessionToken and
// continuously refreshed by the enrichment pipeline.
type UserSession struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	SessionToken   string    `json:"session_token"`
	IPAddress      string    `json:"ip_address,omitempty"`
	Country        string    `json:"country,omitempty"`
	City           string    `json:"city,omitempty"`
	Region         string    `json:"region,omitempty"`
	Timezone       string    `json:"timezone,omitempty"`
	OSDetails      string    `json:"os_details,omitempty"`
	RiskScore      int       `json:"risk_score"`
	IsSuspicious   bool      `json:"is_suspicious"`
	ConnectionType string    `json:"connection_type,omitempty"` // hosting, proxy, direct
	PreviousIPs    []string  `json:"previous_ips"`
	LastActive     time.Time `json:"last_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// PushPreviousIP appends ip to the history, suppressing duplicates and
// evicting the oldest entry beyond MaxPreviousIPs. Order is most-recent-last.
func (s *UserSession) PushPreviousIP(ip string) {
	if ip == "" {
		return
	}
	for _, seen := range s.PreviousIPs {
		if seen == ip {
			return
		}
	}
	s.PreviousIPs = append(s.PreviousIPs, ip)
	if len(s.PreviousIPs) > MaxPreviousIPs {
		s.PreviousIPs = s.PreviousIPs[len(s.PreviousIPs)-MaxPreviousIPs:]
	}
}

// HasSeenCountry reports whether the user has a session on record for the
// given country.
func HasSeenCountry(history []UserSession, country string) bool {
	for _, s := range history {
		if s.Country == country {
			return true
		}
	}
	return false
}
