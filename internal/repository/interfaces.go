package repository

import (
	"context"
	"time"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// GeoRuleRepository provides access to geo_rules.
type GeoRuleRepository interface {
	// ListActive returns an organization's active rules, priority descending.
	ListActive(ctx context.Context, db DBTX, orgID uuid.UUID) ([]domain.GeographicRule, error)

	// ListByOrg returns all rules for the admin surface, priority descending.
	ListByOrg(ctx context.Context, db DBTX, orgID uuid.UUID) ([]domain.GeographicRule, error)

	// Create inserts a new rule.
	Create(ctx context.Context, db DBTX, rule *domain.GeographicRule) error

	// SetActive toggles a rule.
	SetActive(ctx context.Context, db DBTX, id uuid.UUID, active bool) error
}

// ThreatIntelRepository provides read access to threat_intel. Records are
// externally sourced; the engine never writes them.
type ThreatIntelRepository interface {
	// LatestByIP returns the most recent non-expired record for the IP, or
	// nil when none exists.
	LatestByIP(ctx context.Context, db DBTX, ip string) (*domain.ThreatIntelRecord, error)
}

// AttackPatternRepository provides access to attack_patterns.
type AttackPatternRepository interface {
	// ListActive returns an organization's active patterns.
	ListActive(ctx context.Context, db DBTX, orgID uuid.UUID) ([]domain.AttackPattern, error)
}

// DeviceRepository provides access to trusted_devices, unique per
// (user_id, device_fingerprint).
type DeviceRepository interface {
	// Touch upserts a sighting: inserts with the initial trust state on first
	// sight, otherwise refreshes last_seen and metadata. Trust fields are
	// never modified by a race between concurrent sightings.
	Touch(ctx context.Context, db DBTX, userID uuid.UUID, fingerprint string, md domain.DeviceMetadata) (*domain.TrustedDevice, error)

	// ListByUser returns a user's devices for the review surface.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.TrustedDevice, error)
}

// SessionRepository provides access to user_sessions, unique per
// session_token.
type SessionRepository interface {
	// RecentByUser returns sessions active since the cutoff excluding the
	// given token, most-recent-first.
	RecentByUser(ctx context.Context, db DBTX, userID uuid.UUID, excludeToken string, since time.Time, limit int) ([]domain.UserSession, error)

	// FindByToken returns the live session for a token, or nil.
	FindByToken(ctx context.Context, db DBTX, token string) (*domain.UserSession, error)

	// HasCountry reports whether any session on the user's record, regardless
	// of age, carries the country.
	HasCountry(ctx context.Context, db DBTX, userID uuid.UUID, country string) (bool, error)

	// Upsert creates or refreshes the session keyed by session_token.
	Upsert(ctx context.Context, db DBTX, s *domain.UserSession) error
}

// IncidentRepository provides append access to security_incidents plus the
// review-UI reads. Incidents are never updated by the engine.
type IncidentRepository interface {
	// Insert appends a new incident with status open.
	Insert(ctx context.Context, db DBTX, inc *domain.SecurityIncident) error

	// ListByOrg returns incidents newest-first.
	ListByOrg(ctx context.Context, db DBTX, orgID uuid.UUID, limit int) ([]domain.SecurityIncident, error)

	// FindByID returns a single incident.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.SecurityIncident, error)
}

// OutboxRow pairs an outbox draft with its sequence id for publishing.
type OutboxRow struct {
	SeqID int64
	domain.OutboxDraft
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event, ideally in the same transaction as the
	// change that produced it.
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns pending events for the poller, oldest first.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]OutboxRow, error)

	// MarkPublished removes published events.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}
