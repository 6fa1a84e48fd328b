package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AggregateType names an event aggregate.
type AggregateType string

// EventType names a domain event.
type EventType string

const (
	AggregateIncident AggregateType = "incident"
	AggregateSession  AggregateType = "session"

	EventIncidentCreated EventType = "created"
	EventSessionFlagged  EventType = "flagged"
)

// OutboxDraft is an event row written transactionally with its triggering
// change and published asynchronously.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// IncidentEventPayload is the wire payload for incident events; the alert
// consumer decides from it whether to notify.
type IncidentEventPayload struct {
	IncidentID     uuid.UUID `json:"incident_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	IncidentType   string    `json:"incident_type"`
	Severity       Severity  `json:"severity"`
	RiskScore      int       `json:"risk_score"`
	SourceIP       string    `json:"source_ip,omitempty"`
	Country        string    `json:"country,omitempty"`
}

// NewIncidentCreatedEvent creates the outbox draft for a freshly recorded
// incident.
func NewIncidentCreatedEvent(inc *SecurityIncident, riskScore int) OutboxDraft {
	payload, _ := json.Marshal(IncidentEventPayload{
		IncidentID:     inc.ID,
		OrganizationID: inc.OrganizationID,
		UserID:         inc.UserID,
		IncidentType:   inc.IncidentType,
		Severity:       inc.Severity,
		RiskScore:      riskScore,
		SourceIP:       inc.SourceIP,
		Country:        inc.Country,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateIncident,
		AggregateID:   inc.ID.String(),
		EventType:     EventIncidentCreated,
		PartitionKey:  inc.OrganizationID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// GuardResult is the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"`
}
