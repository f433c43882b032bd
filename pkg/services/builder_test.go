package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendkit/decisor/pkg/editor"
	"github.com/lendkit/decisor/pkg/engine"
	"github.com/lendkit/decisor/pkg/models"
)

func newTestBuilder(t *testing.T, stub *stubEngine) *Builder {
	t.Helper()

	builder := NewBuilder(stub, slog.Default())
	require.NoError(t, builder.LoadCatalog(t.Context()))

	return builder
}

func TestBuilder_AddStep_UsesCatalogDefault(t *testing.T) {
	builder := newTestBuilder(t, newStubEngine())

	require.NoError(t, builder.AddStep())

	state, err := builder.State()
	require.NoError(t, err)
	require.Len(t, state.Steps, 1)
	assert.Equal(t, models.StepType("dti_rule"), state.Steps[0].StepType)
	assert.Equal(t, map[string]any{"max_dti": 0.4}, state.Steps[0].Params)
}

func TestBuilder_AddStep_RequiresCatalog(t *testing.T) {
	builder := NewBuilder(newStubEngine(), slog.Default())

	err := builder.AddStep()
	require.ErrorIs(t, err, ErrCatalogNotLoaded)
}

func TestBuilder_ChangeStepType_UnknownType(t *testing.T) {
	builder := newTestBuilder(t, newStubEngine())
	require.NoError(t, builder.AddStep())

	err := builder.ChangeStepType(0, "sentiment_check")
	require.ErrorIs(t, err, ErrUnknownStepType)
}

func TestBuilder_ChangeStepType_ResetsParamsAndSideState(t *testing.T) {
	builder := newTestBuilder(t, newStubEngine())
	require.NoError(t, builder.AddStep())
	require.NoError(t, builder.SetStepRawParams(0, `{"max_dti": broken`))

	require.NoError(t, builder.ChangeStepType(0, "risk_scoring"))

	state, err := builder.State()
	require.NoError(t, err)
	assert.Equal(t, models.StepType("risk_scoring"), state.Steps[0].StepType)
	assert.Equal(t, map[string]any{"threshold": 45.0}, state.Steps[0].Params)
	assert.Nil(t, state.Steps[0].Error)
	assert.Nil(t, state.Steps[0].RawText)
}

func TestBuilder_Hydrate(t *testing.T) {
	stub := newStubEngine()
	stub.pipelines[7] = &models.Pipeline{
		ID:          7,
		Name:        "Default Loan Pipeline",
		Description: "Standard checks",
		Steps: []models.StepConfig{
			{StepType: "dti_rule", Order: 1, Params: map[string]any{"max_dti": 0.4}},
			{StepType: "risk_scoring", Order: 2},
		},
		TerminalRules: []models.TerminalRule{
			{Condition: "dti_rule.failed", Outcome: models.StatusRejected, Order: 1},
			{Condition: "else", Outcome: models.StatusApproved, Order: 2},
		},
	}

	builder := newTestBuilder(t, stub)
	require.NoError(t, builder.Hydrate(t.Context(), 7))

	state, err := builder.State()
	require.NoError(t, err)
	assert.Equal(t, int64(7), state.PipelineID)
	assert.Equal(t, "Default Loan Pipeline", state.Name)

	require.Len(t, state.Steps, 2)
	assert.Equal(t, models.StepType("dti_rule"), state.Steps[0].StepType)
	assert.NotNil(t, state.Steps[1].Params, "missing params hydrate as an empty object")

	require.Len(t, state.Rules, 2)
	assert.Equal(t, "dti_rule.failed", state.Rules[0].Condition)
	assert.Equal(t, models.StatusRejected, state.Rules[0].Outcome)
}

func TestBuilder_Hydrate_DiscardedAfterReset(t *testing.T) {
	stub := newStubEngine()
	stub.pipelines[7] = &models.Pipeline{ID: 7, Name: "Old"}
	stub.fetchStarted = make(chan struct{})
	stub.fetchRelease = make(chan struct{})

	builder := newTestBuilder(t, stub)

	hydrateErr := make(chan error, 1)

	go func() {
		hydrateErr <- builder.Hydrate(t.Context(), 7)
	}()

	<-stub.fetchStarted
	require.NoError(t, builder.Reset())
	close(stub.fetchRelease)

	select {
	case err := <-hydrateErr:
		require.ErrorIs(t, err, ErrStaleHydration)
	case <-time.After(time.Second):
		t.Fatal("hydrate did not return")
	}

	state, err := builder.State()
	require.NoError(t, err)
	assert.Empty(t, state.Name, "stale hydration must not touch the reset session")
	assert.Empty(t, state.Steps)
}

func TestBuilder_Hydrate_AfterClose(t *testing.T) {
	stub := newStubEngine()
	builder := newTestBuilder(t, stub)
	builder.Close()

	err := builder.Hydrate(t.Context(), 7)
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestBuilder_Save_AssignsOrderFromPosition(t *testing.T) {
	stub := newStubEngine()
	builder := newTestBuilder(t, stub)

	require.NoError(t, builder.SetName("My Pipeline"))
	require.NoError(t, builder.AddStep())
	require.NoError(t, builder.AddStep())
	require.NoError(t, builder.ChangeStepType(1, "risk_scoring"))
	require.NoError(t, builder.AddRule())
	require.NoError(t, builder.SetRuleCondition(0, "else"))

	// Move the second step to the front; its order must follow.
	require.NoError(t, builder.MoveStep(1, editor.DirectionUp))

	saved, err := builder.Save(t.Context())
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	persisted := stub.lastSaved()
	require.NotNil(t, persisted)
	require.Len(t, persisted.Steps, 2)
	assert.Equal(t, models.StepType("risk_scoring"), persisted.Steps[0].StepType)
	assert.Equal(t, 1, persisted.Steps[0].Order)
	assert.Equal(t, models.StepType("dti_rule"), persisted.Steps[1].StepType)
	assert.Equal(t, 2, persisted.Steps[1].Order)

	// A second save updates the same identity.
	state, err := builder.State()
	require.NoError(t, err)
	assert.Equal(t, saved.ID, state.PipelineID)
}

func TestBuilder_Save_RequiresName(t *testing.T) {
	builder := newTestBuilder(t, newStubEngine())

	_, err := builder.Save(t.Context())
	require.ErrorIs(t, err, ErrNameRequired)
}

func TestBuilder_Save_BlockedByInvalidRawParams(t *testing.T) {
	stub := newStubEngine()
	builder := newTestBuilder(t, stub)

	require.NoError(t, builder.SetName("My Pipeline"))
	require.NoError(t, builder.AddStep())
	require.NoError(t, builder.AddStep())
	require.NoError(t, builder.SetStepRawParams(0, `{"max_dti": `))
	require.NoError(t, builder.SetStepRawParams(1, `nope`))

	_, err := builder.Save(t.Context())
	require.Error(t, err)

	aggregate, ok := editor.AsAggregateValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, aggregate.Positions())
	assert.Nil(t, stub.lastSaved(), "nothing may reach the engine on a failed materialize")
}

func TestBuilder_Save_CommitsRawParams(t *testing.T) {
	stub := newStubEngine()
	builder := newTestBuilder(t, stub)

	require.NoError(t, builder.SetName("My Pipeline"))
	require.NoError(t, builder.AddStep())
	require.NoError(t, builder.SetStepRawParams(0, `{"max_dti": 0.35}`))
	require.NoError(t, builder.AddRule())
	require.NoError(t, builder.SetRuleCondition(0, "else"))

	_, err := builder.Save(t.Context())
	require.NoError(t, err)

	persisted := stub.lastSaved()
	require.NotNil(t, persisted)
	assert.Equal(t, map[string]any{"max_dti": 0.35}, persisted.Steps[0].Params)
}

func TestBuilder_Save_SingleFlight(t *testing.T) {
	stub := newStubEngine()
	stub.saveStarted = make(chan struct{}, 2)
	stub.saveRelease = make(chan struct{})

	builder := newTestBuilder(t, stub)
	require.NoError(t, builder.SetName("My Pipeline"))
	require.NoError(t, builder.AddStep())
	require.NoError(t, builder.AddRule())
	require.NoError(t, builder.SetRuleCondition(0, "else"))

	firstErr := make(chan error, 1)

	go func() {
		_, err := builder.Save(t.Context())
		firstErr <- err
	}()

	<-stub.saveStarted

	_, err := builder.Save(t.Context())
	require.ErrorIs(t, err, ErrSaveInProgress)

	close(stub.saveRelease)
	require.NoError(t, <-firstErr)

	// With the first save settled, saving works again.
	_, err = builder.Save(t.Context())
	require.NoError(t, err)
}

func TestBuilder_RuleEditing(t *testing.T) {
	builder := newTestBuilder(t, newStubEngine())

	require.NoError(t, builder.AddRule())
	require.NoError(t, builder.AddRule())
	require.NoError(t, builder.SetRuleCondition(0, "dti_rule.failed"))
	require.NoError(t, builder.SetRuleOutcome(0, models.StatusRejected))
	require.NoError(t, builder.SetRuleCondition(1, "else"))

	require.NoError(t, builder.MoveRule(1, editor.DirectionUp))

	state, err := builder.State()
	require.NoError(t, err)
	require.Len(t, state.Rules, 2)
	assert.Equal(t, "else", state.Rules[0].Condition)
	assert.Equal(t, models.StatusApproved, state.Rules[0].Outcome)
	assert.Equal(t, "dti_rule.failed", state.Rules[1].Condition)
	assert.Equal(t, models.StatusRejected, state.Rules[1].Outcome)

	require.NoError(t, builder.RemoveRule(0))

	state, err = builder.State()
	require.NoError(t, err)
	require.Len(t, state.Rules, 1)
	assert.Equal(t, "dti_rule.failed", state.Rules[0].Condition)
}

func TestBuilder_SetRuleOutcome_RejectsNonTerminal(t *testing.T) {
	builder := newTestBuilder(t, newStubEngine())
	require.NoError(t, builder.AddRule())

	err := builder.SetRuleOutcome(0, models.StatusPending)
	require.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestBuilder_MutationsAfterClose(t *testing.T) {
	builder := newTestBuilder(t, newStubEngine())
	builder.Close()

	require.ErrorIs(t, builder.AddStep(), ErrSessionClosed)
	require.ErrorIs(t, builder.AddRule(), ErrSessionClosed)

	_, err := builder.State()
	require.ErrorIs(t, err, ErrSessionClosed)
}

var _ engine.API = (*stubEngine)(nil)
