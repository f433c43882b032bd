// Package engine is the HTTP client for the external decision-engine service
// that owns pipeline persistence, step execution and condition evaluation.
package engine

import (
	"errors"
	"fmt"
)

// Standard engine error types.
var (
	// ErrPipelineNotFound indicates no pipeline exists for the given identifier.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrApplicationNotFound indicates no application exists for the given identifier.
	ErrApplicationNotFound = errors.New("application not found")
)

// ValidationError is the engine's rejection of a submitted document.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "engine rejected request: " + e.Detail
}

// RequestError wraps a failed engine call with the operation and, when a
// response was received, its HTTP status. A failed call is terminal for that
// attempt; the client never retries.
type RequestError struct {
	Op     string
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("engine %s failed with status %d: %v", e.Op, e.Status, e.Err)
	}

	return fmt.Sprintf("engine %s failed: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if an error indicates a missing pipeline or application.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPipelineNotFound) || errors.Is(err, ErrApplicationNotFound)
}

// IsValidationError checks if an error is an engine-side document rejection.
func IsValidationError(err error) bool {
	var validation *ValidationError

	return errors.As(err, &validation)
}
