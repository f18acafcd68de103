package bayes

// QueryTrace describes how a posterior was computed. Mass holds the
// unnormalized probability accumulated for each query value; their sum is
// the probability of the evidence.
type QueryTrace struct {
	Network             string      `json:"network,omitempty"`
	Query               string      `json:"query"`
	Evidence            Assignment  `json:"evidence"`
	Hidden              []string    `json:"hidden"`
	Pruned              []string    `json:"pruned,omitempty"`
	Required            int64       `json:"required_assignments"`
	Evaluated           int64       `json:"evaluated_assignments"`
	Mass                []ValueMass `json:"mass,omitempty"`
	EvidenceProbability float64     `json:"evidence_probability"`
	DurationMicros      int64       `json:"duration_micros"`
	Terminated          string      `json:"terminated"`
}

type ValueMass struct {
	Value string  `json:"value"`
	Mass  float64 `json:"mass"`
}

const (
	TerminatedOK             = "ok"
	TerminatedInvalid        = "invalid_query"
	TerminatedBudgetExceeded = "budget_exceeded"
	TerminatedZeroEvidence   = "zero_evidence"
)
