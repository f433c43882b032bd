package services

import "github.com/lendkit/decisor/pkg/models"

// StepState is the display form of one step row: the committed item plus any
// cached raw text and validation error at its current position.
type StepState struct {
	StepType models.StepType `json:"step_type"`
	Params   map[string]any  `json:"params"`
	RawText  *string         `json:"raw_text,omitempty"`
	Error    *string         `json:"error,omitempty"`
}

// RuleState is the display form of one terminal rule row.
type RuleState struct {
	Condition string             `json:"condition"`
	Outcome   models.FinalStatus `json:"outcome"`
}

// BuilderState is a consistent snapshot of an editing session.
type BuilderState struct {
	SessionID   string                `json:"session_id"`
	PipelineID  int64                 `json:"pipeline_id,omitempty"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Steps       []StepState           `json:"steps"`
	Rules       []RuleState           `json:"rules"`
	Catalog     []models.CatalogEntry `json:"catalog,omitempty"`
	Saving      bool                  `json:"saving"`
	CanSave     bool                  `json:"can_save"`
}

// State returns a snapshot of the session for display. The snapshot is taken
// under the session lock, so it never observes a partially applied mutation.
func (b *Builder) State() (*BuilderState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrSessionClosed
	}

	state := &BuilderState{
		SessionID:   b.id,
		PipelineID:  b.pipelineID,
		Name:        b.name,
		Description: b.description,
		Steps:       make([]StepState, 0, b.steps.Len()),
		Rules:       make([]RuleState, 0, b.rules.Len()),
		Saving:      b.saving,
		CanSave:     b.name != "" && !b.steps.HasValidationErrors() && !b.saving,
	}

	for i, item := range b.steps.Items() {
		step := StepState{StepType: item.Discriminant, Params: item.Payload}

		if text, ok := b.steps.RawText(i); ok {
			step.RawText = &text
		}

		if message, ok := b.steps.ValidationError(i); ok {
			step.Error = &message
		}

		state.Steps = append(state.Steps, step)
	}

	for _, item := range b.rules.Items() {
		state.Rules = append(state.Rules, RuleState{Condition: item.Payload, Outcome: item.Discriminant})
	}

	if b.catalog != nil {
		state.Catalog = b.catalog.Entries()
	}

	return state, nil
}
