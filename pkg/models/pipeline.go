// Package models defines the domain types shared with the decision-engine service.
package models

import "time"

// FinalStatus is the outcome of a loan application decision.
type FinalStatus string

const (
	StatusPending     FinalStatus = "PENDING"
	StatusApproved    FinalStatus = "APPROVED"
	StatusRejected    FinalStatus = "REJECTED"
	StatusNeedsReview FinalStatus = "NEEDS_REVIEW"
)

// TerminalOutcomes lists the statuses a terminal rule may produce. PENDING is
// the initial application state and is never a rule outcome.
func TerminalOutcomes() []FinalStatus {
	return []FinalStatus{StatusApproved, StatusRejected, StatusNeedsReview}
}

// IsTerminalOutcome reports whether s is a valid terminal rule outcome.
func IsTerminalOutcome(s FinalStatus) bool {
	switch s {
	case StatusApproved, StatusRejected, StatusNeedsReview:
		return true
	default:
		return false
	}
}

// StepType identifies an evaluation step implementation in the engine's registry.
type StepType string

// StepConfig is one configured evaluation step of a pipeline as persisted by
// the engine. Order is 1-based and assigned from sequence position at save
// time; while a pipeline is being edited the in-memory sequence position is
// authoritative instead.
type StepConfig struct {
	StepType StepType       `json:"step_type" validate:"required"`
	Order    int            `json:"order"     validate:"min=1"`
	Params   map[string]any `json:"params"`
}

// TerminalRule maps a condition expression to an outcome. Rules are evaluated
// by the engine in ascending order, first match wins. The condition grammar is
// owned by the engine; this module treats it as an opaque string.
type TerminalRule struct {
	Condition string      `json:"condition" validate:"required"`
	Outcome   FinalStatus `json:"outcome"   validate:"required,oneof=APPROVED REJECTED NEEDS_REVIEW"`
	Order     int         `json:"order"     validate:"min=1"`
}

// Pipeline is a decision pipeline as stored by the engine.
type Pipeline struct {
	ID            int64          `json:"id,omitempty"`
	Name          string         `json:"name"        validate:"required"`
	Description   string         `json:"description"`
	Steps         []StepConfig   `json:"steps"          validate:"min=1,dive"`
	TerminalRules []TerminalRule `json:"terminal_rules" validate:"min=1,dive"`
	CreatedAt     time.Time      `json:"created_at,omitzero"`
}
