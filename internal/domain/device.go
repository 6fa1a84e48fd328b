package domain

import (
	"time"

	"github.com/google/uuid"
)

// InitialTrustScore is assigned to every device on first sighting. First
// sightings are never implicitly trusted; trust is elevated only by an
// explicit user or admin approval outside this engine.
const InitialTrustScore = 50

// DeviceMetadata describes a device as derived from client signals.
type DeviceMetadata struct {
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"` // mobile, tablet, desktop
	OS       string `json:"os,omitempty"`
	Browser  string `json:"browser,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// TrustedDevice is a per-user device registry row, unique per
// (UserID, DeviceFingerprint).
type TrustedDevice struct {
	ID                uuid.UUID      `json:"id"`
	UserID            uuid.UUID      `json:"user_id"`
	DeviceFingerprint string         `json:"device_fingerprint"`
	TrustScore        int            `json:"trust_score"`
	IsTrusted         bool           `json:"is_trusted"`
	FirstSeen         time.Time      `json:"first_seen"`
	LastSeen          time.Time      `json:"last_seen"`
	Metadata          DeviceMetadata `json:"device_metadata"`
}
