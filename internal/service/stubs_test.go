package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/clearway/sentinel/internal/provider"
	"github.com/clearway/sentinel/internal/repository"
	"github.com/google/uuid"
)

// Stub repositories for pipeline tests. Each returns canned data or a forced
// error and records writes for assertions.

type stubRules struct {
	rules []domain.GeographicRule
	err   error
}

func (s *stubRules) ListActive(context.Context, repository.DBTX, uuid.UUID) ([]domain.GeographicRule, error) {
	return s.rules, s.err
}
func (s *stubRules) ListByOrg(context.Context, repository.DBTX, uuid.UUID) ([]domain.GeographicRule, error) {
	return s.rules, s.err
}
func (s *stubRules) Create(context.Context, repository.DBTX, *domain.GeographicRule) error { return nil }
func (s *stubRules) SetActive(context.Context, repository.DBTX, uuid.UUID, bool) error     { return nil }

type stubIntel struct {
	rec *domain.ThreatIntelRecord
	err error
}

func (s *stubIntel) LatestByIP(context.Context, repository.DBTX, string) (*domain.ThreatIntelRecord, error) {
	return s.rec, s.err
}

type stubPatterns struct {
	patterns []domain.AttackPattern
	err      error
}

func (s *stubPatterns) ListActive(context.Context, repository.DBTX, uuid.UUID) ([]domain.AttackPattern, error) {
	return s.patterns, s.err
}

type stubDevices struct {
	device *domain.TrustedDevice
	err    error
}

func (s *stubDevices) Touch(_ context.Context, _ repository.DBTX, userID uuid.UUID, fp string, md domain.DeviceMetadata) (*domain.TrustedDevice, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.device != nil {
		return s.device, nil
	}
	// First sighting: initial trust state.
	return &domain.TrustedDevice{
		ID:                uuid.New(),
		UserID:            userID,
		DeviceFingerprint: fp,
		TrustScore:        domain.InitialTrustScore,
		IsTrusted:         false,
		FirstSeen:         time.Now(),
		LastSeen:          time.Now(),
		Metadata:          md,
	}, nil
}
func (s *stubDevices) ListByUser(context.Context, repository.DBTX, uuid.UUID) ([]domain.TrustedDevice, error) {
	return nil, nil
}

type stubSessions struct {
	history []domain.UserSession
	byToken *domain.UserSession
	// seenCountries stands in for rows older than the recent-history window.
	seenCountries []string
	readErr       error
	writeErr      error
	upserted      *domain.UserSession
}

func (s *stubSessions) RecentByUser(context.Context, repository.DBTX, uuid.UUID, string, time.Time, int) ([]domain.UserSession, error) {
	return s.history, s.readErr
}
func (s *stubSessions) FindByToken(context.Context, repository.DBTX, string) (*domain.UserSession, error) {
	return s.byToken, s.readErr
}
func (s *stubSessions) HasCountry(_ context.Context, _ repository.DBTX, _ uuid.UUID, country string) (bool, error) {
	if s.readErr != nil {
		return false, s.readErr
	}
	for _, c := range s.seenCountries {
		if c == country {
			return true, nil
		}
	}
	for _, sess := range s.history {
		if sess.Country == country {
			return true, nil
		}
	}
	if s.byToken != nil && s.byToken.Country == country {
		return true, nil
	}
	return false, nil
}
func (s *stubSessions) Upsert(_ context.Context, _ repository.DBTX, sess *domain.UserSession) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.upserted = sess
	return nil
}

type stubIncidents struct {
	inserted []*domain.SecurityIncident
	err      error
}

func (s *stubIncidents) Insert(_ context.Context, _ repository.DBTX, inc *domain.SecurityIncident) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, inc)
	return nil
}
func (s *stubIncidents) ListByOrg(context.Context, repository.DBTX, uuid.UUID, int) ([]domain.SecurityIncident, error) {
	return nil, nil
}
func (s *stubIncidents) FindByID(context.Context, repository.DBTX, uuid.UUID) (*domain.SecurityIncident, error) {
	return nil, nil
}

type stubOutbox struct {
	drafts []domain.OutboxDraft
	err    error
}

func (s *stubOutbox) Insert(_ context.Context, _ repository.DBTX, draft domain.OutboxDraft) error {
	if s.err != nil {
		return s.err
	}
	s.drafts = append(s.drafts, draft)
	return nil
}
func (s *stubOutbox) FetchUnpublished(context.Context, repository.DBTX, int) ([]repository.OutboxRow, error) {
	return nil, nil
}
func (s *stubOutbox) MarkPublished(context.Context, repository.DBTX, []int64) error { return nil }

type stubGeo struct {
	loc provider.Geolocation
}

func (s *stubGeo) Lookup(context.Context, string) provider.Geolocation { return s.loc }

type stubNotifier struct {
	alerts chan provider.HighRiskAlert
	err    error
}

func newStubNotifier() *stubNotifier {
	return &stubNotifier{alerts: make(chan provider.HighRiskAlert, 1)}
}

func (s *stubNotifier) NotifyHighRisk(_ context.Context, alert provider.HighRiskAlert) error {
	s.alerts <- alert
	return s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
