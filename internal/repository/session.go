package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PgSessionRepository implements SessionRepository using pgx.
type PgSessionRepository struct{}

// NewSessionRepository creates a new PgSessionRepository.
func NewSessionRepository() *PgSessionRepository {
	return &PgSessionRepository{}
}

const sessionColumns = `id, user_id, session_token, ip_address, country, city, region, timezone,
	os_details, risk_score, is_suspicious, connection_type, previous_ips, last_active, created_at`

func (r *PgSessionRepository) RecentByUser(ctx context.Context, db DBTX, userID uuid.UUID, excludeToken string, since time.Time, limit int) ([]domain.UserSession, error) {
	rows, err := db.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM user_sessions
		WHERE user_id = $1 AND session_token <> $2 AND last_active > $3
		ORDER BY last_active DESC
		LIMIT $4`, userID, excludeToken, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.UserSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *PgSessionRepository) FindByToken(ctx context.Context, db DBTX, token string) (*domain.UserSession, error) {
	row := db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM user_sessions
		WHERE session_token = $1`, token)

	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PgSessionRepository) HasCountry(ctx context.Context, db DBTX, userID uuid.UUID, country string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_sessions
			WHERE user_id = $1 AND country = $2
		)`, userID, country).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check seen country: %w", err)
	}
	return exists, nil
}

// Upsert creates or refreshes the row keyed by session_token.
func (r *PgSessionRepository) Upsert(ctx context.Context, db DBTX, s *domain.UserSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := db.Exec(ctx, `
		INSERT INTO user_sessions
		  (id, user_id, session_token, ip_address, country, city, region, timezone,
		   os_details, risk_score, is_suspicious, connection_type, previous_ips, last_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (session_token)
		DO UPDATE SET
		  ip_address = EXCLUDED.ip_address,
		  country = EXCLUDED.country,
		  city = EXCLUDED.city,
		  region = EXCLUDED.region,
		  timezone = EXCLUDED.timezone,
		  os_details = EXCLUDED.os_details,
		  risk_score = EXCLUDED.risk_score,
		  is_suspicious = EXCLUDED.is_suspicious,
		  connection_type = EXCLUDED.connection_type,
		  previous_ips = EXCLUDED.previous_ips,
		  last_active = now()`,
		s.ID, s.UserID, s.SessionToken, s.IPAddress, s.Country, s.City, s.Region, s.Timezone,
		s.OSDetails, s.RiskScore, s.IsSuspicious, s.ConnectionType, s.PreviousIPs)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.UserSession, error) {
	s := &domain.UserSession{}
	err := row.Scan(&s.ID, &s.UserID, &s.SessionToken, &s.IPAddress, &s.Country, &s.City,
		&s.Region, &s.Timezone, &s.OSDetails, &s.RiskScore, &s.IsSuspicious,
		&s.ConnectionType, &s.PreviousIPs, &s.LastActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return s, nil
}
