//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/clearway/sentinel/internal/fingerprint"
	"github.com/clearway/sentinel/test/integration/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0"

func checkBody(userID, orgID uuid.UUID, ip, country, token string) map[string]string {
	return map[string]string{
		"user_id":         userID.String(),
		"organization_id": orgID.String(),
		"ip_address":      ip,
		"country":         country,
		"user_agent":      testUserAgent,
		"session_token":   token,
	}
}

func TestAccessCheck_RequiresAuth(t *testing.T) {
	env := testutil.NewTestEnv(t)

	resp := env.POST("/v1/access/check", checkBody(uuid.New(), uuid.New(), "192.0.2.1", "US", "tok-1"), "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAccessCheck_BlockedCountryDenied(t *testing.T) {
	env := testutil.NewTestEnv(t)
	orgID := uuid.New()
	userID := uuid.New()
	env.SeedGeoRule(orgID, "block_country", "KP", 100)

	resp := env.POST("/v1/access/check",
		checkBody(userID, orgID, "192.0.2.1", "KP", "tok-blocked"), env.ServiceToken(orgID))
	defer resp.Body.Close()

	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var decision struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}
	testutil.DecodeJSON(t, resp, &decision)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "geographic_violation", decision.Reason)

	// Denial is recorded for the review surface
	assert.Equal(t, 1, testutil.CountIncidents(t, env, orgID))
}

func TestAccessCheck_MaliciousIPDenied(t *testing.T) {
	env := testutil.NewTestEnv(t)
	orgID := uuid.New()
	env.SeedThreatIntel("203.0.113.66", "botnet", 85)

	resp := env.POST("/v1/access/check",
		checkBody(uuid.New(), orgID, "203.0.113.66", "US", "tok-threat"), env.ServiceToken(orgID))
	defer resp.Body.Close()

	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var decision struct {
		Reason string `json:"reason"`
	}
	testutil.DecodeJSON(t, resp, &decision)
	assert.Equal(t, "threat_detected", decision.Reason)
}

func TestAccessCheck_CleanRequestAllowed(t *testing.T) {
	env := testutil.NewTestEnv(t)
	orgID := uuid.New()
	userID := uuid.New()

	fp := fingerprint.Device(testUserAgent, fingerprint.Signals{})
	env.SeedTrustedDevice(userID, fp, 80)

	resp := env.POST("/v1/access/check",
		checkBody(userID, orgID, "192.0.2.9", "US", "tok-clean"), env.ServiceToken(orgID))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decision struct {
		Allowed        bool   `json:"allowed"`
		RiskScore      int    `json:"risk_score"`
		ActionRequired string `json:"action_required"`
	}
	testutil.DecodeJSON(t, resp, &decision)
	assert.True(t, decision.Allowed)
	assert.Zero(t, decision.RiskScore)
	assert.Empty(t, decision.ActionRequired)
}

func TestAccessCheck_FirstSightingRegistersDevice(t *testing.T) {
	env := testutil.NewTestEnv(t)
	orgID := uuid.New()
	userID := uuid.New()

	resp := env.POST("/v1/access/check",
		checkBody(userID, orgID, "192.0.2.10", "US", "tok-new-device"), env.ServiceToken(orgID))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	devResp := env.AuthGET("/admin/users/"+userID.String()+"/devices", env.AdminToken("viewer"))
	defer devResp.Body.Close()
	require.Equal(t, http.StatusOK, devResp.StatusCode)

	var devices []struct {
		TrustScore int  `json:"trust_score"`
		IsTrusted  bool `json:"is_trusted"`
	}
	testutil.DecodeJSON(t, devResp, &devices)
	require.Len(t, devices, 1)
	assert.Equal(t, 50, devices[0].TrustScore)
	assert.False(t, devices[0].IsTrusted)
}

func TestAccessCheck_BruteForcePatternBlocks(t *testing.T) {
	env := testutil.NewTestEnv(t)
	orgID := uuid.New()
	userID := uuid.New()
	env.SeedAttackPattern(orgID, "brute_force", "block",
		map[string]int{"max_attempts": 5, "time_window_minutes": 15})

	// Six sessions inside the window trips the default threshold
	for i := 0; i < 6; i++ {
		env.SeedSession(userID, "prior-"+uuid.New().String(), "192.0.2.20", "US",
			time.Now().Add(-time.Minute))
	}

	resp := env.POST("/v1/access/check",
		checkBody(userID, orgID, "192.0.2.20", "US", "tok-brute"), env.ServiceToken(orgID))
	defer resp.Body.Close()

	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	var decision struct {
		Reason string `json:"reason"`
	}
	testutil.DecodeJSON(t, resp, &decision)
	assert.Equal(t, "attack_pattern", decision.Reason)
}

func TestAccessCheck_MalformedBodyRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	orgID := uuid.New()

	resp := env.POST("/v1/access/check", map[string]string{
		"user_id": "not-a-uuid",
	}, env.ServiceToken(orgID))
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusBadRequest)
}
