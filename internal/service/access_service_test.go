package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/clearway/sentinel/internal/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accessFixture struct {
	rules     *stubRules
	intel     *stubIntel
	patterns  *stubPatterns
	devices   *stubDevices
	sessions  *stubSessions
	incidents *stubIncidents
	outbox    *stubOutbox
	svc       *AccessService
}

func newAccessFixture() *accessFixture {
	f := &accessFixture{
		rules:     &stubRules{},
		intel:     &stubIntel{},
		patterns:  &stubPatterns{},
		devices:   &stubDevices{},
		sessions:  &stubSessions{},
		incidents: &stubIncidents{},
		outbox:    &stubOutbox{},
	}
	f.svc = NewAccessService(nil, f.rules, f.intel, f.patterns, f.devices, f.sessions,
		f.incidents, f.outbox, policy.DefaultFailurePolicy(), testLogger())
	return f
}

func checkInput() AccessCheckInput {
	return AccessCheckInput{
		UserID:         uuid.New(),
		OrganizationID: uuid.New(),
		IPAddress:      "203.0.113.9",
		Country:        "US",
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0",
		SessionToken:   "tok-1",
	}
}

func trustedDevice() *domain.TrustedDevice {
	return &domain.TrustedDevice{TrustScore: 90, IsTrusted: true}
}

func TestCheck_BlockedCountryDenies(t *testing.T) {
	f := newAccessFixture()
	f.rules.rules = []domain.GeographicRule{
		{RuleType: domain.RuleBlockCountry, RuleValue: "KP", IsActive: true, Priority: 10},
	}
	in := checkInput()
	in.Country = "KP"

	decision, err := f.svc.Check(context.Background(), in)

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.ReasonGeographicViolation, decision.Reason)
	require.Len(t, f.incidents.inserted, 1)
	assert.Equal(t, domain.ReasonGeographicViolation, f.incidents.inserted[0].IncidentType)
	assert.Equal(t, domain.StatusOpen, f.incidents.inserted[0].Status)
}

func TestCheck_MaliciousIPDenies(t *testing.T) {
	f := newAccessFixture()
	f.intel.rec = &domain.ThreatIntelRecord{IPAddress: "203.0.113.9", ConfidenceScore: 85}

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.ReasonThreatDetected, decision.Reason)
}

func TestCheck_SuspiciousIPContributesButDoesNotBlock(t *testing.T) {
	f := newAccessFixture()
	f.intel.rec = &domain.ThreatIntelRecord{IPAddress: "203.0.113.9", ConfidenceScore: 50}
	f.devices.device = trustedDevice()

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, policy.PenaltySuspiciousIP, decision.RiskScore)
	assert.Contains(t, decision.RiskReasons, policy.ReasonSuspiciousIP)
}

func TestCheck_BruteForcePatternBlocks(t *testing.T) {
	f := newAccessFixture()
	f.patterns.patterns = []domain.AttackPattern{{
		PatternType: domain.PatternBruteForce,
		Threshold:   domain.ThresholdConfig{MaxAttempts: 5, TimeWindowMinutes: 10},
		ActionType:  domain.ActionBlock,
		IsActive:    true,
	}}
	now := time.Now()
	for i := 0; i < 6; i++ {
		f.sessions.history = append(f.sessions.history, domain.UserSession{
			IPAddress:  "203.0.113.9",
			LastActive: now.Add(-time.Duration(i) * time.Minute),
		})
	}

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.ReasonAttackPattern, decision.Reason)
	assert.Contains(t, decision.Details, "brute force")
}

func TestCheck_TrustedDeviceCleanSignalsScoreZero(t *testing.T) {
	f := newAccessFixture()
	f.devices.device = trustedDevice()

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.RiskScore)
	assert.True(t, decision.TrustedDevice)
	assert.Equal(t, 90, decision.TrustScore)
	assert.Empty(t, decision.ActionRequired)
	assert.Empty(t, f.incidents.inserted)
}

func TestCheck_UntrustedDeviceAloneNoMFA(t *testing.T) {
	f := newAccessFixture()

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, policy.PenaltyUntrustedDevice, decision.RiskScore)
	assert.False(t, decision.TrustedDevice)
	assert.Equal(t, domain.InitialTrustScore, decision.TrustScore)
	assert.Empty(t, decision.ActionRequired, "30 is under the mfa threshold")
}

func TestCheck_UntrustedDevicePlusPatternRequiresMFA(t *testing.T) {
	f := newAccessFixture()
	f.patterns.patterns = []domain.AttackPattern{{
		PatternType: domain.PatternRapidLocationChange,
		Threshold:   domain.ThresholdConfig{TimeWindowMinutes: 30},
		ActionType:  domain.ActionAlert,
		IsActive:    true,
	}}
	f.sessions.history = []domain.UserSession{
		{Country: "FR", LastActive: time.Now().Add(-5 * time.Minute)},
	}

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 55, decision.RiskScore)
	assert.Equal(t, domain.ActionMFA, decision.ActionRequired)
}

func TestCheck_PatternMFAActionWinsEvenWhenTrusted(t *testing.T) {
	f := newAccessFixture()
	f.devices.device = trustedDevice()
	f.patterns.patterns = []domain.AttackPattern{{
		PatternType: domain.PatternRapidLocationChange,
		Threshold:   domain.ThresholdConfig{TimeWindowMinutes: 30},
		ActionType:  domain.ActionRequireMFA,
		IsActive:    true,
	}}
	f.sessions.history = []domain.UserSession{
		{Country: "FR", LastActive: time.Now().Add(-5 * time.Minute)},
	}

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, domain.ActionMFA, decision.ActionRequired)
}

func TestCheck_ElevatedScoreRecordsIncident(t *testing.T) {
	f := newAccessFixture()
	f.intel.rec = &domain.ThreatIntelRecord{IPAddress: "203.0.113.9", ConfidenceScore: 50}
	f.patterns.patterns = []domain.AttackPattern{{
		PatternType: domain.PatternRapidLocationChange,
		Threshold:   domain.ThresholdConfig{TimeWindowMinutes: 30},
		ActionType:  domain.ActionAlert,
		IsActive:    true,
	}}
	f.sessions.history = []domain.UserSession{
		{Country: "FR", LastActive: time.Now().Add(-5 * time.Minute)},
	}

	// untrusted 30 + pattern 25 + suspicious 20 = 75
	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 75, decision.RiskScore)
	require.Len(t, f.incidents.inserted, 1)
	assert.Equal(t, "elevated_risk", f.incidents.inserted[0].IncidentType)
	assert.Equal(t, domain.SeverityMedium, f.incidents.inserted[0].Severity)
	require.Len(t, f.outbox.drafts, 1)
	assert.Equal(t, domain.EventIncidentCreated, f.outbox.drafts[0].EventType)
}

func TestCheck_IncidentWriteFailureFailsLoud(t *testing.T) {
	f := newAccessFixture()
	f.rules.rules = []domain.GeographicRule{
		{RuleType: domain.RuleBlockCountry, RuleValue: "KP", IsActive: true, Priority: 10},
	}
	f.incidents.err = errors.New("db down")
	in := checkInput()
	in.Country = "KP"

	_, err := f.svc.Check(context.Background(), in)

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 500, appErr.Status)
}

func TestCheck_RuleStoreFailureFailsOpen(t *testing.T) {
	f := newAccessFixture()
	f.rules.err = errors.New("store unavailable")
	f.devices.device = trustedDevice()

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCheck_ThreatIntelFailureTreatedClean(t *testing.T) {
	f := newAccessFixture()
	f.intel.err = errors.New("store unavailable")
	f.devices.device = trustedDevice()

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.RiskScore)
}

func TestCheck_HistoryFailureSkipsPatterns(t *testing.T) {
	f := newAccessFixture()
	f.patterns.patterns = []domain.AttackPattern{{
		PatternType: domain.PatternBruteForce,
		Threshold:   domain.ThresholdConfig{MaxAttempts: 1, TimeWindowMinutes: 10},
		ActionType:  domain.ActionBlock,
		IsActive:    true,
	}}
	f.sessions.readErr = errors.New("history unavailable")
	f.devices.device = trustedDevice()

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.True(t, decision.Allowed, "history read failure degrades to no patterns triggered")
}

func TestCheck_DeviceRegistryFailureTreatedUntrusted(t *testing.T) {
	f := newAccessFixture()
	f.devices.err = errors.New("registry unavailable")

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.False(t, decision.TrustedDevice)
	assert.Equal(t, 0, decision.TrustScore)
	assert.Equal(t, policy.PenaltyUntrustedDevice, decision.RiskScore)
}

func TestCheck_DeviceRegistryFailClosedSurfacesError(t *testing.T) {
	f := newAccessFixture()
	f.devices.err = errors.New("registry unavailable")
	failures := policy.DefaultFailurePolicy()
	failures.DeviceRegistryRead = policy.FailClosed
	f.svc = NewAccessService(nil, f.rules, f.intel, f.patterns, f.devices, f.sessions,
		f.incidents, f.outbox, failures, testLogger())

	_, err := f.svc.Check(context.Background(), checkInput())

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 500, appErr.Status)
}

func TestCheck_PatternStoreFailClosedBlocks(t *testing.T) {
	f := newAccessFixture()
	f.patterns.err = errors.New("store unavailable")
	f.devices.device = trustedDevice()
	failures := policy.DefaultFailurePolicy()
	failures.AttackPatternRead = policy.FailClosed
	f.svc = NewAccessService(nil, f.rules, f.intel, f.patterns, f.devices, f.sessions,
		f.incidents, f.outbox, failures, testLogger())

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.ReasonAttackPattern, decision.Reason)
}

func TestCheck_PatternStoreFailureFailsOpenByDefault(t *testing.T) {
	f := newAccessFixture()
	f.patterns.err = errors.New("store unavailable")
	f.devices.device = trustedDevice()

	decision, err := f.svc.Check(context.Background(), checkInput())

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.RiskScore)
}
