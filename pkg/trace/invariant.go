package trace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lendkit/decisor/pkg/models"
)

// InvariantViolationError reports rule logs that break the first-match-wins
// contract: matched without evaluated, more than one match, an unevaluated
// rule before the match, or an evaluated rule after it.
type InvariantViolationError struct {
	Violations []string
}

func (e *InvariantViolationError) Error() string {
	return "inconsistent terminal rule trace: " + strings.Join(e.Violations, "; ")
}

// IsInvariantViolation checks if an error reports an inconsistent rule trace.
func IsInvariantViolation(err error) bool {
	var violation *InvariantViolationError

	return errors.As(err, &violation)
}

// CheckRuleLogs validates the cross-record contract over an ordered sequence
// of terminal rule logs. A sequence with no match where every rule was
// evaluated is valid: the pipeline exhausted its rules without matching.
func CheckRuleLogs(logs []models.TerminalRuleLog) error {
	var violations []string

	matchedAt := -1

	for i, log := range logs {
		if log.Matched && !log.Evaluated {
			violations = append(violations, fmt.Sprintf("rule %d is matched but not evaluated", i))
		}

		if log.Matched {
			if matchedAt >= 0 {
				violations = append(violations, fmt.Sprintf("rules %d and %d are both matched", matchedAt, i))
			} else {
				matchedAt = i
			}
		}
	}

	if matchedAt >= 0 {
		for i, log := range logs {
			switch {
			case i < matchedAt && !log.Evaluated:
				violations = append(violations, fmt.Sprintf("rule %d before match %d was not evaluated", i, matchedAt))
			case i > matchedAt && log.Evaluated:
				violations = append(violations, fmt.Sprintf("rule %d after match %d was evaluated", i, matchedAt))
			}
		}
	}

	if len(violations) > 0 {
		return &InvariantViolationError{Violations: violations}
	}

	return nil
}
