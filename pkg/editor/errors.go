package editor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrIndexOutOfRange indicates a structural operation referenced a position
// outside the current sequence. This is a caller bug, not user input; the
// list is left unchanged when it is returned.
var ErrIndexOutOfRange = errors.New("index out of range")

// AggregateValidationError reports every position whose payload could not be
// materialized. Materialize commits nothing when it is returned.
type AggregateValidationError struct {
	Messages map[int]string
}

// Positions returns the failing positions in ascending order.
func (e *AggregateValidationError) Positions() []int {
	positions := make([]int, 0, len(e.Messages))
	for position := range e.Messages {
		positions = append(positions, position)
	}

	sort.Ints(positions)

	return positions
}

func (e *AggregateValidationError) Error() string {
	parts := make([]string, 0, len(e.Messages))
	for _, position := range e.Positions() {
		parts = append(parts, fmt.Sprintf("item %d: %s", position, e.Messages[position]))
	}

	return "invalid payload at " + strings.Join(parts, "; ")
}

// IsIndexOutOfRange checks if an error indicates an invalid sequence position.
func IsIndexOutOfRange(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange)
}

// AsAggregateValidationError extracts an AggregateValidationError if present.
func AsAggregateValidationError(err error) (*AggregateValidationError, bool) {
	var aggregate *AggregateValidationError
	if errors.As(err, &aggregate) {
		return aggregate, true
	}

	return nil, false
}
