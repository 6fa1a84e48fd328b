package domain

// Deny reason tags returned on hard-gate denials.
const (
	ReasonGeographicViolation = "geographic_violation"
	ReasonThreatDetected      = "threat_detected"
	ReasonAttackPattern       = "attack_pattern"
)

// ActionMFA is the follow-up action signalled on elevated-risk allows.
const ActionMFA = "mfa"

// AccessDecision is the outcome of an access check. Denials carry Reason and
// HTTP status 403; allows carry the aggregate score and its reasons.
type AccessDecision struct {
	Allowed        bool     `json:"allowed"`
	RiskScore      int      `json:"risk_score"`
	RiskReasons    []string `json:"risk_reasons,omitempty"`
	TrustedDevice  bool     `json:"trusted_device"`
	TrustScore     int      `json:"trust_score"`
	ActionRequired string   `json:"action_required,omitempty"`
	Reason         string   `json:"reason,omitempty"`
	Details        string   `json:"details,omitempty"`
}
