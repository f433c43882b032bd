package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/lendkit/decisor/pkg/catalog"
	"github.com/lendkit/decisor/pkg/editor"
	"github.com/lendkit/decisor/pkg/engine"
	"github.com/lendkit/decisor/pkg/models"
	"github.com/lendkit/decisor/pkg/translate"
)

// Builder is one pipeline editing session. Mutations are synchronous and
// atomic; engine fetches run outside the lock and their results are applied
// only if the session generation they started under is still current. State
// lives only in memory and is discarded when the session closes.
type Builder struct {
	id     string
	engine engine.API
	logger *slog.Logger

	mu          sync.Mutex
	generation  uint64
	closed      bool
	saving      bool
	pipelineID  int64
	name        string
	description string
	steps       *editor.List[models.StepType, map[string]any]
	rules       *editor.List[models.FinalStatus, string]
	catalog     *catalog.Snapshot
}

// NewBuilder creates an empty editing session for a new pipeline.
func NewBuilder(engineAPI engine.API, logger *slog.Logger) *Builder {
	id := uuid.New().String()

	return &Builder{
		id:     id,
		engine: engineAPI,
		logger: logger.With("session_id", id),
		steps:  editor.NewList[models.StepType](parseParams),
		rules:  editor.NewList[models.FinalStatus](parseCondition),
	}
}

// parseParams turns raw parameter text into a params object. Only syntactic
// validity is checked here; parameter semantics belong to the engine.
func parseParams(text string) (map[string]any, error) {
	var params map[string]any
	if err := json.Unmarshal([]byte(text), &params); err != nil {
		return nil, err
	}

	if params == nil {
		params = map[string]any{}
	}

	return params, nil
}

// parseCondition passes condition text through untouched. The condition
// grammar is owned by the engine's evaluator.
func parseCondition(text string) (string, error) {
	return text, nil
}

// ID returns the session identifier.
func (b *Builder) ID() string {
	return b.id
}

// LoadCatalog fetches the step catalog snapshot for this session.
func (b *Builder) LoadCatalog(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()

		return ErrSessionClosed
	}

	generation := b.generation
	b.mu.Unlock()

	entries, err := b.engine.FetchStepCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load step catalog: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrSessionClosed
	}

	if b.generation != generation {
		return ErrStaleHydration
	}

	b.catalog = catalog.NewSnapshot(entries)

	return nil
}

// Hydrate loads an existing pipeline into the session for editing. If the
// session was closed or reset while the fetch was in flight, the response is
// discarded rather than applied to a stale editor.
func (b *Builder) Hydrate(ctx context.Context, pipelineID int64) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()

		return ErrSessionClosed
	}

	generation := b.generation
	b.mu.Unlock()

	pipeline, err := b.engine.FetchPipeline(ctx, pipelineID)
	if err != nil {
		return fmt.Errorf("hydrate pipeline %d: %w", pipelineID, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrSessionClosed
	}

	if b.generation != generation {
		b.logger.Warn("Discarding stale pipeline hydration", "pipeline_id", pipelineID)

		return ErrStaleHydration
	}

	b.pipelineID = pipeline.ID
	b.name = pipeline.Name
	b.description = pipeline.Description

	b.steps = editor.NewList[models.StepType](parseParams)
	for _, item := range translate.StepsFromPersisted(pipeline.Steps) {
		b.steps.InsertAtEnd(item.Discriminant, item.Payload)
	}

	b.rules = editor.NewList[models.FinalStatus](parseCondition)
	for _, item := range translate.RulesFromPersisted(pipeline.TerminalRules) {
		b.rules.InsertAtEnd(item.Discriminant, item.Payload)
	}

	return nil
}

// SetName sets the pipeline name.
func (b *Builder) SetName(name string) error {
	return b.withLock(func() error {
		b.name = name

		return nil
	})
}

// SetDescription sets the pipeline description.
func (b *Builder) SetDescription(description string) error {
	return b.withLock(func() error {
		b.description = description

		return nil
	})
}

// AddStep appends a step of the catalog's first type with its default params.
func (b *Builder) AddStep() error {
	return b.withLock(func() error {
		if b.catalog == nil {
			return ErrCatalogNotLoaded
		}

		entry, ok := b.catalog.First()
		if !ok {
			return ErrCatalogEmpty
		}

		b.steps.InsertAtEnd(entry.StepType, entry.DefaultParams)

		return nil
	})
}

// ChangeStepType switches the step at position i to a new type, replacing its
// params with the catalog default and dropping any cached raw text or error.
func (b *Builder) ChangeStepType(i int, stepType models.StepType) error {
	return b.withLock(func() error {
		if b.catalog == nil {
			return ErrCatalogNotLoaded
		}

		params, ok := b.catalog.DefaultParams(stepType)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownStepType, stepType)
		}

		return b.steps.ChangeDiscriminant(i, stepType, params)
	})
}

// SetStepRawParams records in-progress parameter text for the step at i. The
// committed params are untouched until save.
func (b *Builder) SetStepRawParams(i int, text string) error {
	return b.withLock(func() error {
		return b.steps.SetRawText(i, text)
	})
}

// MoveStep moves the step at i one position up or down; boundary moves are
// silent no-ops.
func (b *Builder) MoveStep(i int, direction editor.Direction) error {
	return b.withLock(func() error {
		return b.steps.MoveAt(i, direction)
	})
}

// RemoveStep deletes the step at i along with its cached text and error.
func (b *Builder) RemoveStep(i int) error {
	return b.withLock(func() error {
		return b.steps.RemoveAt(i)
	})
}

// AddRule appends an empty terminal rule defaulting to APPROVED.
func (b *Builder) AddRule() error {
	return b.withLock(func() error {
		b.rules.InsertAtEnd(models.StatusApproved, "")

		return nil
	})
}

// SetRuleCondition sets the condition text of the rule at i. The text is
// opaque here; only the engine's evaluator interprets it.
func (b *Builder) SetRuleCondition(i int, condition string) error {
	return b.withLock(func() error {
		return b.rules.SetPayload(i, condition)
	})
}

// SetRuleOutcome sets the outcome of the rule at i, keeping its condition.
func (b *Builder) SetRuleOutcome(i int, outcome models.FinalStatus) error {
	return b.withLock(func() error {
		if !models.IsTerminalOutcome(outcome) {
			return fmt.Errorf("%w: %s", ErrInvalidOutcome, outcome)
		}

		return b.rules.SetDiscriminant(i, outcome)
	})
}

// MoveRule moves the rule at i one position up or down.
func (b *Builder) MoveRule(i int, direction editor.Direction) error {
	return b.withLock(func() error {
		return b.rules.MoveAt(i, direction)
	})
}

// RemoveRule deletes the rule at i.
func (b *Builder) RemoveRule(i int) error {
	return b.withLock(func() error {
		return b.rules.RemoveAt(i)
	})
}

// Save materializes every step payload, translates the session into the
// persisted shape and sends it to the engine. Nothing is committed if any
// position fails to materialize. Only one save may be in flight per session;
// a second request is rejected with ErrSaveInProgress, not queued.
func (b *Builder) Save(ctx context.Context) (*models.Pipeline, error) {
	b.mu.Lock()

	if b.closed {
		b.mu.Unlock()

		return nil, ErrSessionClosed
	}

	if b.saving {
		b.mu.Unlock()

		return nil, ErrSaveInProgress
	}

	if strings.TrimSpace(b.name) == "" {
		b.mu.Unlock()

		return nil, ErrNameRequired
	}

	stepItems, err := b.steps.Materialize()
	if err != nil {
		b.mu.Unlock()

		return nil, err
	}

	ruleItems, err := b.rules.Materialize()
	if err != nil {
		b.mu.Unlock()

		return nil, err
	}

	pipeline := &models.Pipeline{
		ID:            b.pipelineID,
		Name:          b.name,
		Description:   b.description,
		Steps:         translate.StepsToPersisted(stepItems),
		TerminalRules: translate.RulesToPersisted(ruleItems),
	}

	b.saving = true
	generation := b.generation
	b.mu.Unlock()

	saved, saveErr := b.engine.SavePipeline(ctx, pipeline)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.saving = false

	if saveErr != nil {
		return nil, saveErr
	}

	if !b.closed && b.generation == generation {
		b.pipelineID = saved.ID
	}

	return saved, nil
}

// Reset returns the session to an empty new-pipeline state. The generation
// bump makes any fetch still in flight for the previous state stale, so its
// late result cannot land in the reused editor.
func (b *Builder) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrSessionClosed
	}

	b.generation++
	b.pipelineID = 0
	b.name = ""
	b.description = ""
	b.steps = editor.NewList[models.StepType](parseParams)
	b.rules = editor.NewList[models.FinalStatus](parseCondition)

	return nil
}

// Close discards the session. In-flight fetch results for it are dropped when
// they arrive.
func (b *Builder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.generation++
}

// withLock runs a synchronous mutation under the session lock.
func (b *Builder) withLock(mutate func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrSessionClosed
	}

	return mutate()
}
