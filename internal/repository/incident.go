package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PgIncidentRepository implements IncidentRepository using pgx.
type PgIncidentRepository struct{}

// NewIncidentRepository creates a new PgIncidentRepository.
func NewIncidentRepository() *PgIncidentRepository {
	return &PgIncidentRepository{}
}

const incidentColumns = `id, organization_id, user_id, incident_type, severity, source_ip,
	country, city, device_info, details, status, created_at`

// Insert appends a new incident. Status is always open on creation; triage
// transitions happen through the review surface, never here.
func (r *PgIncidentRepository) Insert(ctx context.Context, db DBTX, inc *domain.SecurityIncident) error {
	if inc.ID == uuid.Nil {
		inc.ID = uuid.New()
	}
	inc.Status = domain.StatusOpen

	_, err := db.Exec(ctx, `
		INSERT INTO security_incidents
		  (id, organization_id, user_id, incident_type, severity, source_ip, country, city, device_info, details, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		inc.ID, inc.OrganizationID, inc.UserID, inc.IncidentType, string(inc.Severity),
		inc.SourceIP, inc.Country, inc.City, inc.DeviceInfo, inc.Details, string(inc.Status))
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func (r *PgIncidentRepository) ListByOrg(ctx context.Context, db DBTX, orgID uuid.UUID, limit int) ([]domain.SecurityIncident, error) {
	rows, err := db.Query(ctx, `
		SELECT `+incidentColumns+`
		FROM security_incidents
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []domain.SecurityIncident
	for rows.Next() {
		var inc domain.SecurityIncident
		if err := rows.Scan(&inc.ID, &inc.OrganizationID, &inc.UserID, &inc.IncidentType, &inc.Severity,
			&inc.SourceIP, &inc.Country, &inc.City, &inc.DeviceInfo, &inc.Details, &inc.Status, &inc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		incidents = append(incidents, inc)
	}
	return incidents, rows.Err()
}

func (r *PgIncidentRepository) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.SecurityIncident, error) {
	row := db.QueryRow(ctx, `
		SELECT `+incidentColumns+`
		FROM security_incidents
		WHERE id = $1`, id)

	inc := &domain.SecurityIncident{}
	err := row.Scan(&inc.ID, &inc.OrganizationID, &inc.UserID, &inc.IncidentType, &inc.Severity,
		&inc.SourceIP, &inc.Country, &inc.City, &inc.DeviceInfo, &inc.Details, &inc.Status, &inc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find incident: %w", err)
	}
	return inc, nil
}
