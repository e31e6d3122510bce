package model

// StepStatus represents the state of one pipeline step attempt.
type StepStatus string

const (
	StepStatusPending StepStatus = "pending"
	StepStatusRunning StepStatus = "running"
	StepStatusSuccess StepStatus = "success"
	StepStatusFailed  StepStatus = "failed"
	StepStatusSkipped StepStatus = "skipped"
)

// RejectedEmail records a candidate the quality gate turned away, with the
// rule that rejected it, so "no email found" stays traceable per step.
type RejectedEmail struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// EnrichmentStep is the audit record for one strategy attempt. Immutable
// once the pipeline run completes.
type EnrichmentStep struct {
	StrategyTag    string           `json:"strategy_tag"`
	Label          string           `json:"label"`
	Status         StepStatus       `json:"status"`
	EmailsFound    []EmailCandidate `json:"emails_found,omitempty"`
	RejectedEmails []RejectedEmail  `json:"rejected_emails,omitempty"`
	BestEmail      string           `json:"best_email,omitempty"`
	Confidence     float64          `json:"confidence,omitempty"`
	DurationMS     int64            `json:"duration_ms"`
	ActorUsed      bool             `json:"actor_used,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// EnrichmentResult is the outcome of a full discovery pipeline run for one
// artist. Steps always covers the complete step list, including skips.
type EnrichmentResult struct {
	EmailFound      string           `json:"email_found,omitempty"`
	EmailConfidence float64          `json:"email_confidence"`
	EmailSource     string           `json:"email_source,omitempty"`
	AllEmails       []EmailCandidate `json:"all_emails,omitempty"`
	Steps           []EnrichmentStep `json:"steps"`
	IsContactable   bool             `json:"is_contactable"`
	TotalDurationMS int64            `json:"total_duration_ms"`
}
