package repository

import (
	"context"
	"fmt"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/google/uuid"
)

// PgAttackPatternRepository implements AttackPatternRepository using pgx.
type PgAttackPatternRepository struct{}

// NewAttackPatternRepository creates a new PgAttackPatternRepository.
func NewAttackPatternRepository() *PgAttackPatternRepository {
	return &PgAttackPatternRepository{}
}

func (r *PgAttackPatternRepository) ListActive(ctx context.Context, db DBTX, orgID uuid.UUID) ([]domain.AttackPattern, error) {
	rows, err := db.Query(ctx, `
		SELECT id, organization_id, pattern_type, threshold_config, action_type, is_active, created_at
		FROM attack_patterns
		WHERE organization_id = $1 AND is_active = true`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list attack patterns: %w", err)
	}
	defer rows.Close()

	var patterns []domain.AttackPattern
	for rows.Next() {
		var p domain.AttackPattern
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.PatternType, &p.Threshold, &p.ActionType, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attack pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}
