package access

import "github.com/darmiel/vigil/internal/core"

// Step names one stage of the verification pipeline, in execution order.
type Step string

const (
	StepIdentityLookup Step = "identity_lookup"
	StepZoneResolution Step = "zone_resolution"
	StepPolicyMatch    Step = "policy_match"
	StepTrustCheck     Step = "trust_check"
	StepTimeCheck      Step = "time_check"
	StepSessionCreate  Step = "session_create"
)

// StepResult captures why a pipeline step passed or failed.
type StepResult struct {
	Step   Step   `json:"step"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DecisionTrace is the detailed trace of a single verification. Explain returns
// it for dry-runs; the pipeline stops at the first failing step, so the trace
// of a denial ends with exactly one failed step.
type DecisionTrace struct {
	CorrelationID   string           `json:"correlation_id,omitempty"`
	EntityID        string           `json:"entity_id"`
	DestinationIP   string           `json:"destination_ip"`
	DestinationPort int              `json:"destination_port"`
	Protocol        string           `json:"protocol"`
	SourceZone      core.NetworkZone `json:"source_zone,omitempty"`
	DestinationZone core.NetworkZone `json:"destination_zone,omitempty"`
	Steps           []StepResult     `json:"steps"`
	Granted         bool             `json:"granted"`
	Reason          core.Reason      `json:"reason"`
	PolicyID        string           `json:"policy_id,omitempty"`
}

func (t *DecisionTrace) addStep(step Step, passed bool, detail string) {
	t.Steps = append(t.Steps, StepResult{Step: step, Passed: passed, Detail: detail})
}
