package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/clearway/sentinel/internal/policy"
	"github.com/clearway/sentinel/internal/provider"
	"github.com/clearway/sentinel/internal/repository"
	"github.com/google/uuid"
)

// notifyTimeout bounds the fire-and-forget notification dispatch.
const notifyTimeout = 10 * time.Second

// GeoResolver resolves IP geolocation. Lookup never fails; unknown locations
// come back as the zero Geolocation.
type GeoResolver interface {
	Lookup(ctx context.Context, ip string) provider.Geolocation
}

// EnrichInput is the validated input for a session enrichment.
type EnrichInput struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	SessionToken   string
	IPAddress      string
	UserAgent      string
}

// EnrichService geolocates, classifies, and re-scores a session on every
// session-touch event.
type EnrichService struct {
	db        repository.DBTX
	sessions  repository.SessionRepository
	incidents repository.IncidentRepository
	outbox    repository.OutboxRepository
	geo       GeoResolver
	notifier  provider.Notifier
	failures  policy.FailurePolicy
	logger    *slog.Logger
}

// NewEnrichService wires the session enrichment pipeline.
func NewEnrichService(
	db repository.DBTX,
	sessions repository.SessionRepository,
	incidents repository.IncidentRepository,
	outbox repository.OutboxRepository,
	geo GeoResolver,
	notifier provider.Notifier,
	failures policy.FailurePolicy,
	logger *slog.Logger,
) *EnrichService {
	return &EnrichService{
		db:        db,
		sessions:  sessions,
		incidents: incidents,
		outbox:    outbox,
		geo:       geo,
		notifier:  notifier,
		failures:  failures,
		logger:    logger,
	}
}

// Enrich resolves the session's geolocation, classifies OS and connection
// type, recomputes the risk score, and persists the session. The session
// upsert fails loud; the high-risk notification is fire-and-forget.
func (s *EnrichService) Enrich(ctx context.Context, in EnrichInput) (*domain.UserSession, error) {
	now := time.Now()

	loc := s.geo.Lookup(ctx, in.IPAddress)
	osDetails := policy.ClassifyOS(in.UserAgent)
	connection := policy.ClassifyConnection(loc.Hosting, loc.Proxy)

	prev, history := s.loadContext(ctx, in, now)

	prevCountry, prevActive := lastKnownLocation(prev, history)
	seen := s.countrySeen(ctx, in.UserID, loc.Country, prev, history)

	score, reasons := policy.ScoreSessionGeo(policy.SessionGeoSignals{
		PrevCountry:    prevCountry,
		PrevLastActive: prevActive,
		Country:        loc.Country,
		SeenCountry:    seen,
		ProxyOrHosting: loc.Proxy || loc.Hosting,
		Now:            now,
	})

	session := &domain.UserSession{
		UserID:         in.UserID,
		SessionToken:   in.SessionToken,
		IPAddress:      in.IPAddress,
		Country:        loc.Country,
		City:           loc.City,
		Region:         loc.Region,
		Timezone:       loc.Timezone,
		OSDetails:      osDetails,
		RiskScore:      score,
		IsSuspicious:   score > policy.SuspiciousSessionThreshold,
		ConnectionType: connection,
		LastActive:     now,
	}
	if prev != nil {
		session.ID = prev.ID
		session.PreviousIPs = prev.PreviousIPs
	}
	session.PushPreviousIP(in.IPAddress)

	if err := s.sessions.Upsert(ctx, s.db, session); err != nil {
		return nil, domain.ErrWriteFailed("persist session", err)
	}

	if score > policy.NotifyThreshold {
		if err := s.recordHighRisk(ctx, in, session, reasons); err != nil {
			return nil, err
		}
		s.dispatchAlert(in, session, reasons)
	}

	return session, nil
}

// loadContext fetches the prior session state and recent history, failing
// open to empty context so enrichment proceeds without them.
func (s *EnrichService) loadContext(ctx context.Context, in EnrichInput, now time.Time) (*domain.UserSession, []domain.UserSession) {
	prev, err := s.sessions.FindByToken(ctx, s.db, in.SessionToken)
	if err != nil {
		s.logger.Warn("session read failed, enriching without prior state",
			"session_token_user", in.UserID, "error", err)
		prev = nil
	}

	history, err := s.sessions.RecentByUser(ctx, s.db, in.UserID, in.SessionToken, now.Add(-historyWindow), historyLimit)
	if err != nil {
		s.logger.Warn("session history read failed, enriching without history",
			"user_id", in.UserID, "error", err)
		history = nil
	}
	return prev, history
}

// countrySeen reports whether the country already appears anywhere on the
// user's session record. The check spans the full record, not the bounded
// pattern window, so a familiar country is not penalized after a gap in
// activity. A failed lookup falls back to the loaded recent history.
func (s *EnrichService) countrySeen(ctx context.Context, userID uuid.UUID, country string, prev *domain.UserSession, history []domain.UserSession) bool {
	if country == "" {
		return false
	}
	if prev != nil && prev.Country == country {
		return true
	}
	seen, err := s.sessions.HasCountry(ctx, s.db, userID, country)
	if err != nil {
		s.logger.Warn("country history read failed, falling back to recent sessions",
			"user_id", userID, "error", err)
		return domain.HasSeenCountry(history, country)
	}
	return seen
}

func (s *EnrichService) recordHighRisk(ctx context.Context, in EnrichInput, session *domain.UserSession, reasons []string) error {
	details, _ := json.Marshal(map[string]any{
		"risk_score": session.RiskScore,
		"reasons":    reasons,
	})
	inc := &domain.SecurityIncident{
		OrganizationID: in.OrganizationID,
		UserID:         in.UserID,
		IncidentType:   "high_risk_session",
		Severity:       policy.IncidentSeverity(session.RiskScore),
		SourceIP:       in.IPAddress,
		Country:        session.Country,
		City:           session.City,
		DeviceInfo:     session.OSDetails,
		Details:        details,
		Status:         domain.StatusOpen,
	}
	if err := s.incidents.Insert(ctx, s.db, inc); err != nil {
		return domain.ErrWriteFailed("record incident", err)
	}
	if err := s.outbox.Insert(ctx, s.db, domain.NewIncidentCreatedEvent(inc, session.RiskScore)); err != nil {
		s.logger.Error("outbox insert failed, incident recorded without event",
			"incident_id", inc.ID, "error", err)
	}
	return nil
}

// dispatchAlert sends the notification from a detached goroutine: failure to
// notify must never fail or delay the enrichment response.
func (s *EnrichService) dispatchAlert(in EnrichInput, session *domain.UserSession, reasons []string) {
	if s.notifier == nil {
		return
	}
	alert := provider.HighRiskAlert{
		UserID:         in.UserID,
		OrganizationID: in.OrganizationID,
		RiskScore:      session.RiskScore,
		Reasons:        reasons,
		IPAddress:      in.IPAddress,
		Country:        session.Country,
		Severity:       string(policy.IncidentSeverity(session.RiskScore)),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyHighRisk(ctx, alert); err != nil {
			s.logger.Warn("high-risk notification failed", "user_id", alert.UserID, "error", err)
		}
	}()
}

func lastKnownLocation(prev *domain.UserSession, history []domain.UserSession) (string, time.Time) {
	if prev != nil && prev.Country != "" {
		return prev.Country, prev.LastActive
	}
	if len(history) > 0 {
		return history[0].Country, history[0].LastActive
	}
	return "", time.Time{}
}
