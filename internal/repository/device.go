package repository

import (
	"context"
	"fmt"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/google/uuid"
)

// PgDeviceRepository implements DeviceRepository using pgx.
type PgDeviceRepository struct{}

// NewDeviceRepository creates a new PgDeviceRepository.
func NewDeviceRepository() *PgDeviceRepository {
	return &PgDeviceRepository{}
}

// Touch upserts a device sighting. Concurrent first sightings for the same
// (user_id, device_fingerprint) resolve via ON CONFLICT: last write wins on
// last_seen/metadata, trust_score and is_trusted are never touched here.
func (r *PgDeviceRepository) Touch(ctx context.Context, db DBTX, userID uuid.UUID, fingerprint string, md domain.DeviceMetadata) (*domain.TrustedDevice, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO trusted_devices
		  (id, user_id, device_fingerprint, trust_score, is_trusted, first_seen, last_seen, device_metadata)
		VALUES ($1, $2, $3, $4, false, now(), now(), $5)
		ON CONFLICT (user_id, device_fingerprint)
		DO UPDATE SET last_seen = now(), device_metadata = EXCLUDED.device_metadata
		RETURNING id, user_id, device_fingerprint, trust_score, is_trusted, first_seen, last_seen, device_metadata`,
		uuid.New(), userID, fingerprint, domain.InitialTrustScore, md)

	d := &domain.TrustedDevice{}
	err := row.Scan(&d.ID, &d.UserID, &d.DeviceFingerprint, &d.TrustScore, &d.IsTrusted, &d.FirstSeen, &d.LastSeen, &d.Metadata)
	if err != nil {
		return nil, fmt.Errorf("touch device: %w", err)
	}
	return d, nil
}

func (r *PgDeviceRepository) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.TrustedDevice, error) {
	rows, err := db.Query(ctx, `
		SELECT id, user_id, device_fingerprint, trust_score, is_trusted, first_seen, last_seen, device_metadata
		FROM trusted_devices
		WHERE user_id = $1
		ORDER BY last_seen DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.TrustedDevice
	for rows.Next() {
		var d domain.TrustedDevice
		if err := rows.Scan(&d.ID, &d.UserID, &d.DeviceFingerprint, &d.TrustScore, &d.IsTrusted, &d.FirstSeen, &d.LastSeen, &d.Metadata); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}
