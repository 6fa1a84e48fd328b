package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/clearway/sentinel/internal/fingerprint"
	"github.com/clearway/sentinel/internal/policy"
	"github.com/clearway/sentinel/internal/repository"
	"github.com/google/uuid"
)

// historyWindow bounds the session history consulted for pattern matching.
const historyWindow = 24 * time.Hour

// historyLimit caps how many recent sessions pattern matching sees.
const historyLimit = 100

// AccessCheckInput is the validated input for an access check.
type AccessCheckInput struct {
	UserID          uuid.UUID
	OrganizationID  uuid.UUID
	IPAddress       string
	Country         string
	City            string
	UserAgent       string
	FingerprintSeed string
	SessionToken    string
}

// AccessService decides whether an authentication/session event is allowed,
// needs step-up verification, or is blocked.
type AccessService struct {
	db        repository.DBTX
	rules     repository.GeoRuleRepository
	intel     repository.ThreatIntelRepository
	patterns  repository.AttackPatternRepository
	devices   repository.DeviceRepository
	sessions  repository.SessionRepository
	incidents repository.IncidentRepository
	outbox    repository.OutboxRepository
	failures  policy.FailurePolicy
	logger    *slog.Logger
}

// NewAccessService wires the access-check pipeline.
func NewAccessService(
	db repository.DBTX,
	rules repository.GeoRuleRepository,
	intel repository.ThreatIntelRepository,
	patterns repository.AttackPatternRepository,
	devices repository.DeviceRepository,
	sessions repository.SessionRepository,
	incidents repository.IncidentRepository,
	outbox repository.OutboxRepository,
	failures policy.FailurePolicy,
	logger *slog.Logger,
) *AccessService {
	return &AccessService{
		db:        db,
		rules:     rules,
		intel:     intel,
		patterns:  patterns,
		devices:   devices,
		sessions:  sessions,
		incidents: incidents,
		outbox:    outbox,
		failures:  failures,
		logger:    logger,
	}
}

// Check runs the full decision pipeline: geo rules, threat intel, attack
// patterns, device trust, then hard gates and aggregation. Signal reads fail
// open per the configured failure policy; incident writes fail loud.
func (s *AccessService) Check(ctx context.Context, in AccessCheckInput) (*domain.AccessDecision, error) {
	now := time.Now()

	deviceFP := fingerprint.Device(in.UserAgent, fingerprint.Signals{Seed: in.FingerprintSeed})
	deviceMD := policy.DeriveDeviceMetadata(in.UserAgent, "")

	geoVerdict := s.evaluateGeo(ctx, in)
	threat := s.lookupThreat(ctx, in.IPAddress, now)
	patternResult := s.evaluatePatterns(ctx, in, now)
	device, err := s.touchDevice(ctx, in.UserID, deviceFP, deviceMD)
	if err != nil {
		return nil, err
	}

	trusted := device != nil && device.IsTrusted
	trustScore := 0
	if device != nil {
		trustScore = device.TrustScore
	}

	// Hard gates: any one is a terminal deny regardless of aggregate score.
	if !geoVerdict.Allowed {
		if err := s.recordIncident(ctx, in, domain.ReasonGeographicViolation, domain.SeverityHigh, deviceMD, map[string]any{
			"rule_reason": geoVerdict.Reason,
		}, 0); err != nil {
			return nil, err
		}
		return deny(domain.ReasonGeographicViolation, geoVerdict.Reason), nil
	}
	if threat == policy.ThreatMalicious {
		if err := s.recordIncident(ctx, in, domain.ReasonThreatDetected, domain.SeverityCritical, deviceMD, map[string]any{
			"ip_address": in.IPAddress,
		}, 0); err != nil {
			return nil, err
		}
		return deny(domain.ReasonThreatDetected, "IP flagged by threat intelligence"), nil
	}
	if patternResult.Block() {
		if err := s.recordIncident(ctx, in, domain.ReasonAttackPattern, domain.SeverityHigh, deviceMD, map[string]any{
			"patterns": patternResult.Reasons,
		}, 0); err != nil {
			return nil, err
		}
		return deny(domain.ReasonAttackPattern, joinReasons(patternResult.Reasons)), nil
	}

	score, reasons := policy.AggregateRisk(policy.RiskSignals{
		DeviceTrusted:  trusted,
		PatternReasons: patternResult.Reasons,
		Threat:         threat,
	})

	decision := &domain.AccessDecision{
		Allowed:       true,
		RiskScore:     score,
		RiskReasons:   reasons,
		TrustedDevice: trusted,
		TrustScore:    trustScore,
	}

	switch {
	case patternResult.RequireMFA():
		decision.ActionRequired = domain.ActionMFA
	case score > policy.MFAThreshold && !trusted:
		decision.ActionRequired = domain.ActionMFA
	}

	// Monitoring signal: elevated but allowed traffic still leaves a record.
	if score > policy.IncidentThreshold {
		severity := policy.IncidentSeverity(score)
		if err := s.recordIncident(ctx, in, "elevated_risk", severity, deviceMD, map[string]any{
			"risk_score": score,
			"reasons":    reasons,
		}, score); err != nil {
			return nil, err
		}
	}

	return decision, nil
}

func (s *AccessService) evaluateGeo(ctx context.Context, in AccessCheckInput) policy.GeoVerdict {
	rules, err := s.rules.ListActive(ctx, s.db, in.OrganizationID)
	if err != nil {
		if s.failures.GeoRuleRead == policy.FailOpen {
			s.logger.Warn("geo rule read failed, failing open",
				"organization_id", in.OrganizationID, "error", err)
			return policy.GeoVerdict{Allowed: true}
		}
		return policy.GeoVerdict{Reason: "rule store unavailable"}
	}

	verdict := policy.EvaluateGeoRules(rules, in.Country, "")
	if verdict.GeofenceSkipped > 0 {
		s.logger.Warn("geofence rules configured but not evaluated",
			"organization_id", in.OrganizationID, "count", verdict.GeofenceSkipped)
	}
	return verdict
}

func (s *AccessService) lookupThreat(ctx context.Context, ip string, now time.Time) policy.ThreatLevel {
	rec, err := s.intel.LatestByIP(ctx, s.db, ip)
	if err != nil {
		if s.failures.ThreatIntelRead == policy.FailOpen {
			s.logger.Warn("threat intel read failed, treating IP as clean", "ip", ip, "error", err)
			return policy.ThreatClean
		}
		return policy.ThreatMalicious
	}
	return policy.ClassifyThreat(rec, now)
}

func (s *AccessService) evaluatePatterns(ctx context.Context, in AccessCheckInput, now time.Time) policy.PatternResult {
	patterns, err := s.patterns.ListActive(ctx, s.db, in.OrganizationID)
	if err != nil {
		if s.failures.AttackPatternRead == policy.FailOpen {
			s.logger.Warn("attack pattern read failed, skipping pattern detection",
				"organization_id", in.OrganizationID, "error", err)
			return policy.PatternResult{}
		}
		return policy.PatternResult{Triggered: true, Action: domain.ActionBlock, Reasons: []string{"pattern store unavailable"}}
	}
	if len(patterns) == 0 {
		return policy.PatternResult{}
	}

	history, err := s.sessions.RecentByUser(ctx, s.db, in.UserID, in.SessionToken, now.Add(-historyWindow), historyLimit)
	if err != nil {
		if s.failures.SessionHistoryRead == policy.FailOpen {
			s.logger.Warn("session history read failed, skipping pattern detection",
				"user_id", in.UserID, "error", err)
			return policy.PatternResult{}
		}
		return policy.PatternResult{Triggered: true, Action: domain.ActionBlock, Reasons: []string{"history unavailable"}}
	}

	return policy.EvaluatePatterns(patterns, history, policy.PatternInput{
		IPAddress: in.IPAddress,
		Country:   in.Country,
		Now:       now,
	})
}

// touchDevice registers the sighting and returns the current trust state.
// Under a fail-open registry policy, trouble degrades to "unknown device":
// untrusted, zero trust score.
func (s *AccessService) touchDevice(ctx context.Context, userID uuid.UUID, fp string, md domain.DeviceMetadata) (*domain.TrustedDevice, error) {
	device, err := s.devices.Touch(ctx, s.db, userID, fp, md)
	if err != nil {
		if s.failures.DeviceRegistryRead == policy.FailOpen {
			s.logger.Warn("device registry unavailable, treating device as untrusted",
				"user_id", userID, "error", err)
			return nil, nil
		}
		return nil, domain.ErrInternal("device registry unavailable", err)
	}
	return device, nil
}

func (s *AccessService) recordIncident(ctx context.Context, in AccessCheckInput, incidentType string, severity domain.Severity, md domain.DeviceMetadata, details map[string]any, riskScore int) error {
	payload, _ := json.Marshal(details)
	inc := &domain.SecurityIncident{
		OrganizationID: in.OrganizationID,
		UserID:         in.UserID,
		IncidentType:   incidentType,
		Severity:       severity,
		SourceIP:       in.IPAddress,
		Country:        in.Country,
		City:           in.City,
		DeviceInfo:     md.Name,
		Details:        payload,
		Status:         domain.StatusOpen,
	}
	if err := s.incidents.Insert(ctx, s.db, inc); err != nil {
		// Dropping a security record silently is unacceptable.
		return domain.ErrWriteFailed("record incident", err)
	}
	if err := s.outbox.Insert(ctx, s.db, domain.NewIncidentCreatedEvent(inc, riskScore)); err != nil {
		s.logger.Error("outbox insert failed, incident recorded without event",
			"incident_id", inc.ID, "error", err)
	}
	return nil
}

func deny(reason, details string) *domain.AccessDecision {
	return &domain.AccessDecision{Allowed: false, Reason: reason, Details: details}
}

func joinReasons(reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "; " + r
	}
	return out
}
