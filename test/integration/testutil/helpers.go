//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/clearway/sentinel/internal/auth"
	"github.com/google/uuid"
)

// ServiceToken generates a JWT for a machine caller scoped to the given organization.
func (env *TestEnv) ServiceToken(orgID uuid.UUID) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmService, uuid.New(), orgID.String(), "")
	if err != nil {
		env.t.Fatalf("ServiceToken: %v", err)
	}
	return token
}

// AdminToken generates a JWT for an admin user with the given role.
func (env *TestEnv) AdminToken(role string) string {
	env.t.Helper()
	token, err := env.JWTMgr.GenerateToken(auth.RealmAdmin, uuid.New(), "", role)
	if err != nil {
		env.t.Fatalf("AdminToken: %v", err)
	}
	return token
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("POST %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("POST", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("POST %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest("GET", env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("AuthGET %s: new request: %v", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("AuthGET %s: %v", path, err)
	}
	return resp
}

// AuthPATCH performs an authenticated PATCH request.
func (env *TestEnv) AuthPATCH(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("PATCH %s: encode: %v", path, err)
		}
	}
	req, err := http.NewRequest("PATCH", env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("PATCH %s: new request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("PATCH %s: %v", path, err)
	}
	return resp
}

// SeedGeoRule inserts a geographic rule and returns its ID.
func (env *TestEnv) SeedGeoRule(orgID uuid.UUID, ruleType, ruleValue string, priority int) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	_, err := env.Pool.Exec(ctx, `
		INSERT INTO geo_rules (id, organization_id, rule_type, rule_value, is_active, priority)
		VALUES ($1, $2, $3, $4, true, $5)`,
		id, orgID, ruleType, ruleValue, priority)
	if err != nil {
		env.t.Fatalf("SeedGeoRule: %v", err)
	}
	return id
}

// SeedThreatIntel inserts a threat intel record for the given IP.
func (env *TestEnv) SeedThreatIntel(ip, threatType string, confidence int) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx, `
		INSERT INTO threat_intel (ip_address, threat_type, confidence_score, source, expires_at)
		VALUES ($1, $2, $3, 'test-feed', now() + interval '1 day')`,
		ip, threatType, confidence)
	if err != nil {
		env.t.Fatalf("SeedThreatIntel: %v", err)
	}
}

// SeedAttackPattern inserts an active attack pattern and returns its ID.
func (env *TestEnv) SeedAttackPattern(orgID uuid.UUID, patternType, action string, threshold map[string]int) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := json.Marshal(threshold)
	if err != nil {
		env.t.Fatalf("SeedAttackPattern: marshal: %v", err)
	}

	id := uuid.New()
	_, err = env.Pool.Exec(ctx, `
		INSERT INTO attack_patterns (id, organization_id, pattern_type, threshold_config, action_type, is_active)
		VALUES ($1, $2, $3, $4, $5, true)`,
		id, orgID, patternType, cfg, action)
	if err != nil {
		env.t.Fatalf("SeedAttackPattern: %v", err)
	}
	return id
}

// SeedTrustedDevice marks a device fingerprint as trusted for the user.
func (env *TestEnv) SeedTrustedDevice(userID uuid.UUID, fingerprint string, trustScore int) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx, `
		INSERT INTO trusted_devices (id, user_id, device_fingerprint, trust_score, is_trusted, device_metadata)
		VALUES ($1, $2, $3, $4, true, '{}')`,
		uuid.New(), userID, fingerprint, trustScore)
	if err != nil {
		env.t.Fatalf("SeedTrustedDevice: %v", err)
	}
}

// SeedSession inserts a user session row.
func (env *TestEnv) SeedSession(userID uuid.UUID, token, ip, country string, lastActive time.Time) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx, `
		INSERT INTO user_sessions (id, user_id, session_token, ip_address, country, last_active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), userID, token, ip, country, lastActive)
	if err != nil {
		env.t.Fatalf("SeedSession: %v", err)
	}
}
