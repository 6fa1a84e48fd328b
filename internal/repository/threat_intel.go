package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/jackc/pgx/v5"
)

// PgThreatIntelRepository implements ThreatIntelRepository using pgx.
type PgThreatIntelRepository struct{}

// NewThreatIntelRepository creates a new PgThreatIntelRepository.
func NewThreatIntelRepository() *PgThreatIntelRepository {
	return &PgThreatIntelRepository{}
}

// LatestByIP returns the most recent non-expired record for the given IP.
func (r *PgThreatIntelRepository) LatestByIP(ctx context.Context, db DBTX, ip string) (*domain.ThreatIntelRecord, error) {
	row := db.QueryRow(ctx, `
		SELECT ip_address, threat_type, confidence_score, source, expires_at, created_at
		FROM threat_intel
		WHERE ip_address = $1 AND (expires_at IS NULL OR expires_at > now())
		ORDER BY created_at DESC
		LIMIT 1`, ip)

	rec := &domain.ThreatIntelRecord{}
	err := row.Scan(&rec.IPAddress, &rec.ThreatType, &rec.ConfidenceScore, &rec.Source, &rec.ExpiresAt, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup threat intel: %w", err)
	}
	return rec, nil
}
