package models

import "time"

// StepLog is the engine's record of one executed step, produced in step order.
type StepLog struct {
	StepType       string         `json:"step_type"`
	Order          int            `json:"order"`
	Passed         bool           `json:"passed"`
	ComputedValues map[string]any `json:"computed_values"`
	Message        string         `json:"message"`
}

// TerminalRuleLog is the engine's record of one terminal rule within a run,
// produced in rule order. Matched implies Evaluated; across a run at most one
// log is matched, everything before it is evaluated and everything after it is
// not. The trace renderer checks that invariant, it never re-derives it.
type TerminalRuleLog struct {
	Condition string      `json:"condition"`
	Outcome   FinalStatus `json:"outcome"`
	Order     int         `json:"order"`
	Evaluated bool        `json:"evaluated"`
	Matched   bool        `json:"matched"`
	Reason    string      `json:"reason"`
}

// RunRequest selects the application and pipeline to execute.
type RunRequest struct {
	ApplicationID int64 `json:"application_id" validate:"gt=0"`
	PipelineID    int64 `json:"pipeline_id"    validate:"gt=0"`
}

// Run is an immutable snapshot of one pipeline execution, owned entirely by
// the engine.
type Run struct {
	ID               int64             `json:"id"`
	ApplicationID    int64             `json:"application_id"`
	PipelineID       int64             `json:"pipeline_id"`
	StepLogs         []StepLog         `json:"step_logs"`
	TerminalRuleLogs []TerminalRuleLog `json:"terminal_rule_logs"`
	FinalStatus      FinalStatus       `json:"final_status"`
	ExecutedAt       time.Time         `json:"executed_at"`

	// Summaries embedded by the engine when it expands the run record.
	Application *Application `json:"application,omitempty"`
	Pipeline    *Pipeline    `json:"pipeline,omitempty"`
}
