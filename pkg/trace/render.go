// Package trace renders run records produced by the decision engine. It
// derives a pass/fail decoration per step and a tri-state decoration per
// terminal rule, trusting the engine's matched/evaluated flags but checking
// their cross-record consistency before presenting them.
package trace

import (
	"errors"
	"time"

	"github.com/lendkit/decisor/pkg/models"
)

// StepDecoration is the two-state display classification of a step log.
type StepDecoration string

const (
	StepPassed StepDecoration = "passed"
	StepFailed StepDecoration = "failed"
)

// RuleDecoration is the tri-state display classification of a terminal rule
// log within one run.
type RuleDecoration string

const (
	// RuleMatched is the rule that decided the outcome.
	RuleMatched RuleDecoration = "matched"
	// RuleEvaluated was tried before the matching rule and did not match.
	RuleEvaluated RuleDecoration = "evaluated"
	// RuleNotEvaluated was never reached because an earlier rule matched.
	RuleNotEvaluated RuleDecoration = "not_evaluated"
)

// StepView is a step log with its display decoration.
type StepView struct {
	models.StepLog

	Decoration StepDecoration `json:"decoration"`
}

// RuleView is a terminal rule log with its display decoration.
type RuleView struct {
	models.TerminalRuleLog

	Decoration RuleDecoration `json:"decoration"`
	Badge      string         `json:"badge"`
}

// RenderedRun is the display form of a run. When the engine's rule logs
// violate their consistency contract, Inconsistent is set and Violations
// explains why; the per-rule flags are still shown as received so the
// operator sees the raw data rather than a guessed winner.
type RenderedRun struct {
	RunID         int64               `json:"run_id"`
	ApplicationID int64               `json:"application_id"`
	PipelineID    int64               `json:"pipeline_id"`
	Application   *models.Application `json:"application,omitempty"`
	Pipeline      *models.Pipeline    `json:"pipeline,omitempty"`
	FinalStatus   models.FinalStatus  `json:"final_status"`
	StatusBadge   string              `json:"status_badge"`
	ExecutedAt    time.Time           `json:"executed_at"`
	Steps         []StepView          `json:"steps"`
	Rules         []RuleView          `json:"rules"`
	Inconsistent  bool                `json:"inconsistent"`
	Violations    []string            `json:"violations,omitempty"`
}

// Render produces the display form of a run. The returned error, if any, is
// an *InvariantViolationError; the view is still returned alongside it with
// Inconsistent set, so callers can show the trace with a warning instead of
// dropping it.
func Render(run *models.Run) (*RenderedRun, error) {
	rendered := &RenderedRun{
		RunID:         run.ID,
		ApplicationID: run.ApplicationID,
		PipelineID:    run.PipelineID,
		Application:   run.Application,
		Pipeline:      run.Pipeline,
		FinalStatus:   run.FinalStatus,
		StatusBadge:   StatusBadge(run.FinalStatus),
		ExecutedAt:    run.ExecutedAt,
		Steps:         make([]StepView, len(run.StepLogs)),
		Rules:         make([]RuleView, len(run.TerminalRuleLogs)),
	}

	for i, log := range run.StepLogs {
		decoration := StepFailed
		if log.Passed {
			decoration = StepPassed
		}

		rendered.Steps[i] = StepView{StepLog: log, Decoration: decoration}
	}

	for i, log := range run.TerminalRuleLogs {
		rendered.Rules[i] = RuleView{
			TerminalRuleLog: log,
			Decoration:      classifyRule(log),
			Badge:           StatusBadge(log.Outcome),
		}
	}

	if err := CheckRuleLogs(run.TerminalRuleLogs); err != nil {
		var violation *InvariantViolationError
		if errors.As(err, &violation) {
			rendered.Inconsistent = true
			rendered.Violations = violation.Violations
		}

		return rendered, err
	}

	return rendered, nil
}

// classifyRule derives the tri-state decoration from a single log's flags.
func classifyRule(log models.TerminalRuleLog) RuleDecoration {
	switch {
	case log.Matched:
		return RuleMatched
	case log.Evaluated:
		return RuleEvaluated
	default:
		return RuleNotEvaluated
	}
}

// StatusBadge maps an outcome to its display badge variant.
func StatusBadge(status models.FinalStatus) string {
	switch status {
	case models.StatusApproved:
		return "success"
	case models.StatusRejected:
		return "destructive"
	case models.StatusNeedsReview:
		return "warning"
	default:
		return "default"
	}
}
