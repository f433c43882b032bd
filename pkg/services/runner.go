package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lendkit/decisor/pkg/engine"
	"github.com/lendkit/decisor/pkg/models"
	"github.com/lendkit/decisor/pkg/trace"
)

// Runner drives pipeline execution against loan applications. The execution
// itself happens entirely inside the engine; Runner selects the inputs and
// renders the resulting trace.
type Runner struct {
	engine engine.API
	logger *slog.Logger
}

// NewRunner creates a run-execution service.
func NewRunner(engineAPI engine.API, logger *slog.Logger) *Runner {
	return &Runner{engine: engineAPI, logger: logger}
}

// Selection holds the choices offered on the run page.
type Selection struct {
	Applications []*models.Application `json:"applications"`
	Pipelines    []*models.Pipeline    `json:"pipelines"`
}

// Selection fetches the applications and pipelines available for a run.
func (r *Runner) Selection(ctx context.Context) (*Selection, error) {
	applications, err := r.engine.FetchApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch applications: %w", err)
	}

	pipelines, err := r.engine.FetchPipelines(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch pipelines: %w", err)
	}

	return &Selection{Applications: applications, Pipelines: pipelines}, nil
}

// Execute runs a pipeline against an application and renders the trace. When
// the engine's rule logs are internally inconsistent the rendered view is
// still returned, flagged, so the operator sees the raw trace instead of a
// guessed winner.
func (r *Runner) Execute(ctx context.Context, request models.RunRequest) (*trace.RenderedRun, error) {
	run, err := r.engine.ExecuteRun(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("execute run: %w", err)
	}

	rendered, err := trace.Render(run)
	if err != nil {
		r.logger.Warn("Engine produced an inconsistent rule trace",
			"run_id", run.ID,
			"pipeline_id", run.PipelineID,
			"application_id", run.ApplicationID,
			"error", err,
		)
	}

	return rendered, nil
}
