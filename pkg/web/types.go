// Package web provides the HTTP surface of the pipeline studio: editing
// sessions, pipeline listing, and run execution.
package web

// CreateSessionRequest opens an editing session, optionally hydrating it from
// an existing pipeline.
type CreateSessionRequest struct {
	PipelineID *int64 `json:"pipeline_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdateSessionRequest sets pipeline name and description. Fields are
// optional to support partial updates.
type UpdateSessionRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// UpdateStepRequest changes a step row: switching its type resets the params
// to the catalog default; raw_params records in-progress parameter text.
type UpdateStepRequest struct {
	StepType  *string `json:"step_type,omitempty"  validate:"omitempty,min=1"`
	RawParams *string `json:"raw_params,omitempty"`
}

// UpdateRuleRequest changes a terminal rule row.
type UpdateRuleRequest struct {
	Condition *string `json:"condition,omitempty"`
	Outcome   *string `json:"outcome,omitempty" validate:"omitempty,oneof=APPROVED REJECTED NEEDS_REVIEW"`
}

// MoveRequest reorders a row by one position.
type MoveRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// ExecuteRunRequest selects the inputs of a pipeline run.
type ExecuteRunRequest struct {
	ApplicationID int64 `json:"application_id" validate:"gt=0"`
	PipelineID    int64 `json:"pipeline_id"    validate:"gt=0"`
}
