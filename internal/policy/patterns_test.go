package policy

import (
	"testing"
	"time"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/stretchr/testify/assert"
)

func pattern(t domain.PatternType, cfg domain.ThresholdConfig, action domain.PatternAction) domain.AttackPattern {
	return domain.AttackPattern{PatternType: t, Threshold: cfg, ActionType: action, IsActive: true}
}

func sessionsFromIP(ip string, n int, spacing time.Duration, now time.Time) []domain.UserSession {
	out := make([]domain.UserSession, n)
	for i := 0; i < n; i++ {
		out[i] = domain.UserSession{IPAddress: ip, LastActive: now.Add(-time.Duration(i+1) * spacing)}
	}
	return out
}

func TestEvaluatePatterns_BruteForceTriggersBlock(t *testing.T) {
	now := time.Now()
	patterns := []domain.AttackPattern{
		pattern(domain.PatternBruteForce,
			domain.ThresholdConfig{MaxAttempts: 5, TimeWindowMinutes: 10}, domain.ActionBlock),
	}
	history := sessionsFromIP("203.0.113.9", 6, time.Minute, now)

	result := EvaluatePatterns(patterns, history, PatternInput{IPAddress: "203.0.113.9", Now: now})

	assert.True(t, result.Triggered)
	assert.True(t, result.Block())
	assert.Contains(t, result.Reasons[0], "brute force")
}

func TestEvaluatePatterns_BruteForceUnderThreshold(t *testing.T) {
	now := time.Now()
	patterns := []domain.AttackPattern{
		pattern(domain.PatternBruteForce,
			domain.ThresholdConfig{MaxAttempts: 5, TimeWindowMinutes: 10}, domain.ActionBlock),
	}
	history := sessionsFromIP("203.0.113.9", 4, time.Minute, now)

	result := EvaluatePatterns(patterns, history, PatternInput{IPAddress: "203.0.113.9", Now: now})
	assert.False(t, result.Triggered)
}

func TestEvaluatePatterns_BruteForceIgnoresStaleAndOtherIPs(t *testing.T) {
	now := time.Now()
	patterns := []domain.AttackPattern{
		pattern(domain.PatternBruteForce,
			domain.ThresholdConfig{MaxAttempts: 3, TimeWindowMinutes: 10}, domain.ActionBlock),
	}
	history := append(
		sessionsFromIP("203.0.113.9", 2, time.Minute, now),
		domain.UserSession{IPAddress: "203.0.113.9", LastActive: now.Add(-time.Hour)},
		domain.UserSession{IPAddress: "198.51.100.1", LastActive: now.Add(-time.Minute)},
	)

	result := EvaluatePatterns(patterns, history, PatternInput{IPAddress: "203.0.113.9", Now: now})
	assert.False(t, result.Triggered)
}

func TestEvaluatePatterns_MultipleCountries(t *testing.T) {
	now := time.Now()
	patterns := []domain.AttackPattern{
		pattern(domain.PatternMultipleCountries,
			domain.ThresholdConfig{MaxCountries: 2, TimeWindowHours: 24}, domain.ActionRequireMFA),
	}
	history := []domain.UserSession{
		{Country: "FR", LastActive: now.Add(-time.Hour)},
		{Country: "DE", LastActive: now.Add(-2 * time.Hour)},
	}

	// Current country is the third distinct one.
	result := EvaluatePatterns(patterns, history, PatternInput{Country: "US", Now: now})

	assert.True(t, result.Triggered)
	assert.True(t, result.RequireMFA())
}

func TestEvaluatePatterns_MultipleCountriesAtThresholdOK(t *testing.T) {
	now := time.Now()
	patterns := []domain.AttackPattern{
		pattern(domain.PatternMultipleCountries,
			domain.ThresholdConfig{MaxCountries: 2, TimeWindowHours: 24}, domain.ActionRequireMFA),
	}
	history := []domain.UserSession{{Country: "FR", LastActive: now.Add(-time.Hour)}}

	result := EvaluatePatterns(patterns, history, PatternInput{Country: "US", Now: now})
	assert.False(t, result.Triggered, "exactly maxCountries does not trigger")
}

func TestEvaluatePatterns_RapidLocationChange(t *testing.T) {
	now := time.Now()
	patterns := []domain.AttackPattern{
		pattern(domain.PatternRapidLocationChange,
			domain.ThresholdConfig{TimeWindowMinutes: 30}, domain.ActionAlert),
	}
	history := []domain.UserSession{{Country: "FR", LastActive: now.Add(-5 * time.Minute)}}

	result := EvaluatePatterns(patterns, history, PatternInput{Country: "US", Now: now})

	assert.True(t, result.Triggered)
	assert.False(t, result.Block())
	assert.False(t, result.RequireMFA())
	assert.Contains(t, result.Reasons[0], "FR to US")
}

func TestEvaluatePatterns_RapidChangeSameCountryOK(t *testing.T) {
	now := time.Now()
	patterns := []domain.AttackPattern{
		pattern(domain.PatternRapidLocationChange,
			domain.ThresholdConfig{TimeWindowMinutes: 30}, domain.ActionBlock),
	}
	history := []domain.UserSession{{Country: "US", LastActive: now.Add(-5 * time.Minute)}}

	result := EvaluatePatterns(patterns, history, PatternInput{Country: "US", Now: now})
	assert.False(t, result.Triggered)
}

func TestEvaluatePatterns_MostRestrictiveActionWins(t *testing.T) {
	now := time.Now()
	patterns := []domain.AttackPattern{
		pattern(domain.PatternRapidLocationChange,
			domain.ThresholdConfig{TimeWindowMinutes: 30}, domain.ActionAlert),
		pattern(domain.PatternBruteForce,
			domain.ThresholdConfig{MaxAttempts: 2, TimeWindowMinutes: 30}, domain.ActionBlock),
	}
	history := make([]domain.UserSession, 0, 3)
	history = append(history, domain.UserSession{Country: "FR", IPAddress: "203.0.113.9", LastActive: now.Add(-2 * time.Minute)})
	history = append(history, sessionsFromIP("203.0.113.9", 2, time.Minute, now)...)

	result := EvaluatePatterns(patterns, history, PatternInput{IPAddress: "203.0.113.9", Country: "US", Now: now})

	assert.True(t, result.Triggered)
	assert.Len(t, result.Reasons, 2)
	assert.True(t, result.Block())
}

func TestEvaluatePatterns_InactivePatternSkipped(t *testing.T) {
	now := time.Now()
	p := pattern(domain.PatternBruteForce,
		domain.ThresholdConfig{MaxAttempts: 1, TimeWindowMinutes: 30}, domain.ActionBlock)
	p.IsActive = false
	history := sessionsFromIP("203.0.113.9", 3, time.Minute, now)

	result := EvaluatePatterns([]domain.AttackPattern{p}, history, PatternInput{IPAddress: "203.0.113.9", Now: now})
	assert.False(t, result.Triggered)
}

func TestEvaluatePatterns_EmptyHistoryNoTriggers(t *testing.T) {
	now := time.Now()
	patterns := []domain.AttackPattern{
		pattern(domain.PatternBruteForce, domain.ThresholdConfig{}, domain.ActionBlock),
		pattern(domain.PatternMultipleCountries, domain.ThresholdConfig{}, domain.ActionBlock),
		pattern(domain.PatternRapidLocationChange, domain.ThresholdConfig{}, domain.ActionBlock),
	}

	result := EvaluatePatterns(patterns, nil, PatternInput{IPAddress: "203.0.113.9", Country: "US", Now: now})
	assert.False(t, result.Triggered)
}
