package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a security incident.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IncidentStatus tracks triage state. The engine only ever writes "open";
// transitions happen through human review.
type IncidentStatus string

const (
	StatusOpen          IncidentStatus = "open"
	StatusInvestigating IncidentStatus = "investigating"
	StatusResolved      IncidentStatus = "resolved"
	StatusFalsePositive IncidentStatus = "false_positive"
)

// SecurityIncident is an append-only audit record. Every trigger produces a
// distinct row; deduplication is a human workflow.
type SecurityIncident struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	UserID         uuid.UUID       `json:"user_id"`
	IncidentType   string          `json:"incident_type"`
	Severity       Severity        `json:"severity"`
	SourceIP       string          `json:"source_ip,omitempty"`
	Country        string          `json:"country,omitempty"`
	City           string          `json:"city,omitempty"`
	DeviceInfo     string          `json:"device_info,omitempty"`
	Details        json.RawMessage `json:"details,omitempty"`
	Status         IncidentStatus  `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}
