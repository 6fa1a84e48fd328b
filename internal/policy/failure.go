package policy

// FailureMode is the behavior when a collaborator is unavailable.
type FailureMode string

const (
	// FailOpen degrades to permissive behavior with mandatory logging.
	FailOpen FailureMode = "fail_open"
	// FailClosed surfaces the failure to the caller.
	FailClosed FailureMode = "fail_closed"
)

// FailurePolicy names the per-collaborator failure behavior so the
// availability-over-strictness trade-off is auditable and can be tightened
// per deployment instead of being buried in call sites.
type FailurePolicy struct {
	GeoRuleRead        FailureMode
	ThreatIntelRead    FailureMode
	AttackPatternRead  FailureMode
	SessionHistoryRead FailureMode
	DeviceRegistryRead FailureMode
	IncidentWrite      FailureMode
	SessionWrite       FailureMode
}

// DefaultFailurePolicy is fail-open on read-only signal sources and
// fail-closed on security writes: a missed signal costs a false allow, a
// dropped security record is unacceptable.
func DefaultFailurePolicy() FailurePolicy {
	return FailurePolicy{
		GeoRuleRead:        FailOpen,
		ThreatIntelRead:    FailOpen,
		AttackPatternRead:  FailOpen,
		SessionHistoryRead: FailOpen,
		DeviceRegistryRead: FailOpen,
		IncidentWrite:      FailClosed,
		SessionWrite:       FailClosed,
	}
}
