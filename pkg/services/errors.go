// Package services hosts the editing-session and run-execution services that
// sit between the web handlers and the decision engine.
package services

import "errors"

// Business logic errors surfaced to the studio UI.
var (
	// ErrSaveInProgress indicates a save was requested while one is already
	// in flight for the same session. The duplicate is rejected, not queued.
	ErrSaveInProgress = errors.New("save already in progress")

	// ErrSessionNotFound indicates an unknown or closed editing session.
	ErrSessionNotFound = errors.New("editing session not found")

	// ErrSessionClosed indicates a mutation arrived after the session was
	// closed, e.g. a hydration response that outlived its editor.
	ErrSessionClosed = errors.New("editing session closed")

	// ErrStaleHydration indicates a pipeline fetch completed for a session
	// that has since been reset; its result is discarded.
	ErrStaleHydration = errors.New("hydration response is stale")

	// ErrCatalogEmpty indicates the step catalog has no entries, so no step
	// can be added.
	ErrCatalogEmpty = errors.New("step catalog is empty")

	// ErrCatalogNotLoaded indicates a step mutation was attempted before the
	// catalog snapshot was fetched.
	ErrCatalogNotLoaded = errors.New("step catalog not loaded")

	// ErrUnknownStepType indicates a step type that is not in the catalog.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrNameRequired indicates a save without a pipeline name.
	ErrNameRequired = errors.New("pipeline name is required")

	// ErrInvalidOutcome indicates a rule outcome outside the terminal set.
	ErrInvalidOutcome = errors.New("invalid terminal rule outcome")
)

// IsSaveInProgress checks if an error indicates a duplicate in-flight save.
func IsSaveInProgress(err error) bool {
	return errors.Is(err, ErrSaveInProgress)
}

// IsSessionNotFound checks if an error indicates a missing session.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionClosed)
}

// IsValidationError checks if an error should surface as a 400 to the UI.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrCatalogEmpty) ||
		errors.Is(err, ErrCatalogNotLoaded) ||
		errors.Is(err, ErrUnknownStepType) ||
		errors.Is(err, ErrNameRequired) ||
		errors.Is(err, ErrInvalidOutcome)
}
