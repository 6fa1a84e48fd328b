package repository

import (
	"context"
	"fmt"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/google/uuid"
)

// PgGeoRuleRepository implements GeoRuleRepository using pgx.
type PgGeoRuleRepository struct{}

// NewGeoRuleRepository creates a new PgGeoRuleRepository.
func NewGeoRuleRepository() *PgGeoRuleRepository {
	return &PgGeoRuleRepository{}
}

func (r *PgGeoRuleRepository) ListActive(ctx context.Context, db DBTX, orgID uuid.UUID) ([]domain.GeographicRule, error) {
	return r.list(ctx, db, orgID, true)
}

func (r *PgGeoRuleRepository) ListByOrg(ctx context.Context, db DBTX, orgID uuid.UUID) ([]domain.GeographicRule, error) {
	return r.list(ctx, db, orgID, false)
}

func (r *PgGeoRuleRepository) list(ctx context.Context, db DBTX, orgID uuid.UUID, activeOnly bool) ([]domain.GeographicRule, error) {
	query := `
		SELECT id, organization_id, rule_type, rule_value, is_active, priority, created_at
		FROM geo_rules
		WHERE organization_id = $1`
	if activeOnly {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY priority DESC, created_at ASC`

	rows, err := db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list geo rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.GeographicRule
	for rows.Next() {
		var g domain.GeographicRule
		if err := rows.Scan(&g.ID, &g.OrganizationID, &g.RuleType, &g.RuleValue, &g.IsActive, &g.Priority, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan geo rule: %w", err)
		}
		rules = append(rules, g)
	}
	return rules, rows.Err()
}

func (r *PgGeoRuleRepository) Create(ctx context.Context, db DBTX, rule *domain.GeographicRule) error {
	_, err := db.Exec(ctx, `
		INSERT INTO geo_rules (id, organization_id, rule_type, rule_value, is_active, priority)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rule.ID, rule.OrganizationID, string(rule.RuleType), rule.RuleValue, rule.IsActive, rule.Priority)
	if err != nil {
		return fmt.Errorf("insert geo rule: %w", err)
	}
	return nil
}

func (r *PgGeoRuleRepository) SetActive(ctx context.Context, db DBTX, id uuid.UUID, active bool) error {
	tag, err := db.Exec(ctx,
		`UPDATE geo_rules SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("toggle geo rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("geo rule", id.String())
	}
	return nil
}
