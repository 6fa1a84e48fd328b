package policy

import (
	"fmt"
	"time"

	"github.com/clearway/sentinel/internal/domain"
)

// Threshold defaults applied when a pattern's config omits a field.
const (
	DefaultMaxAttempts       = 5
	DefaultWindowMinutes     = 60
	DefaultMaxCountries      = 3
	DefaultWindowHours       = 24
	DefaultRapidChangeMinute = 60
)

// PatternInput carries the current request's signals for pattern matching.
type PatternInput struct {
	IPAddress string
	Country   string
	Now       time.Time
}

// PatternResult accumulates triggered patterns. When several fire, Action is
// the most restrictive of their configured actions.
type PatternResult struct {
	Triggered bool
	Reasons   []string
	Action    domain.PatternAction
}

// Block reports whether a triggered pattern demands a hard deny.
func (r PatternResult) Block() bool { return r.Action == domain.ActionBlock }

// RequireMFA reports whether a triggered pattern demands step-up verification.
func (r PatternResult) RequireMFA() bool { return r.Action == domain.ActionRequireMFA }

// EvaluatePatterns checks each active pattern against the user's recent
// session history. History must be ordered most-recent-first.
func EvaluatePatterns(patterns []domain.AttackPattern, history []domain.UserSession, in PatternInput) PatternResult {
	var result PatternResult

	for i := range patterns {
		p := &patterns[i]
		if !p.IsActive {
			continue
		}

		var reason string
		switch p.PatternType {
		case domain.PatternBruteForce:
			reason = matchBruteForce(p, history, in)
		case domain.PatternMultipleCountries:
			reason = matchMultipleCountries(p, history, in)
		case domain.PatternRapidLocationChange:
			reason = matchRapidLocationChange(p, history, in)
		}
		if reason == "" {
			continue
		}

		result.Triggered = true
		result.Reasons = append(result.Reasons, reason)
		if p.ActionType.Restrictiveness() > result.Action.Restrictiveness() {
			result.Action = p.ActionType
		}
	}

	return result
}

func matchBruteForce(p *domain.AttackPattern, history []domain.UserSession, in PatternInput) string {
	maxAttempts := p.Threshold.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	windowMin := p.Threshold.TimeWindowMinutes
	if windowMin <= 0 {
		windowMin = DefaultWindowMinutes
	}
	cutoff := in.Now.Add(-time.Duration(windowMin) * time.Minute)

	count := 0
	for _, s := range history {
		if s.IPAddress == in.IPAddress && s.LastActive.After(cutoff) {
			count++
		}
	}
	if count >= maxAttempts {
		return fmt.Sprintf("brute force: %d attempts from %s within %d minutes", count, in.IPAddress, windowMin)
	}
	return ""
}

func matchMultipleCountries(p *domain.AttackPattern, history []domain.UserSession, in PatternInput) string {
	maxCountries := p.Threshold.MaxCountries
	if maxCountries <= 0 {
		maxCountries = DefaultMaxCountries
	}
	windowHours := p.Threshold.TimeWindowHours
	if windowHours <= 0 {
		windowHours = DefaultWindowHours
	}
	cutoff := in.Now.Add(-time.Duration(windowHours) * time.Hour)

	countries := map[string]struct{}{}
	if in.Country != "" {
		countries[in.Country] = struct{}{}
	}
	for _, s := range history {
		if s.Country != "" && s.LastActive.After(cutoff) {
			countries[s.Country] = struct{}{}
		}
	}
	if len(countries) > maxCountries {
		return fmt.Sprintf("multiple countries: %d distinct countries within %d hours", len(countries), windowHours)
	}
	return ""
}

func matchRapidLocationChange(p *domain.AttackPattern, history []domain.UserSession, in PatternInput) string {
	if len(history) == 0 || in.Country == "" {
		return ""
	}
	windowMin := p.Threshold.TimeWindowMinutes
	if windowMin <= 0 {
		windowMin = DefaultRapidChangeMinute
	}

	last := history[0]
	if last.Country == "" || last.Country == in.Country {
		return ""
	}
	elapsed := in.Now.Sub(last.LastActive)
	if elapsed < time.Duration(windowMin)*time.Minute {
		return fmt.Sprintf("rapid location change: %s to %s in %s", last.Country, in.Country, elapsed.Round(time.Second))
	}
	return ""
}
