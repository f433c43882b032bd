package web

import (
	"context"
	"sync"

	"github.com/lendkit/decisor/pkg/engine"
	"github.com/lendkit/decisor/pkg/models"
)

// fakeEngine is an in-memory engine.API backing the handler tests.
type fakeEngine struct {
	mu sync.Mutex

	catalog      []models.CatalogEntry
	pipelines    map[int64]*models.Pipeline
	applications []*models.Application
	run          *models.Run
	nextID       int64
}

var _ engine.API = (*fakeEngine)(nil)

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		catalog: []models.CatalogEntry{
			{StepType: "dti_rule", DefaultParams: map[string]any{"max_dti": 0.4}},
			{StepType: "amount_policy", DefaultParams: map[string]any{"max_amount": 50000.0}},
		},
		pipelines: map[int64]*models.Pipeline{},
		nextID:    100,
	}
}

func (f *fakeEngine) FetchStepCatalog(_ context.Context) ([]models.CatalogEntry, error) {
	return f.catalog, nil
}

func (f *fakeEngine) FetchPipeline(_ context.Context, id int64) (*models.Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pipeline, ok := f.pipelines[id]
	if !ok {
		return nil, engine.ErrPipelineNotFound
	}

	return pipeline, nil
}

func (f *fakeEngine) FetchPipelines(_ context.Context) ([]*models.Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pipelines := make([]*models.Pipeline, 0, len(f.pipelines))
	for _, pipeline := range f.pipelines {
		pipelines = append(pipelines, pipeline)
	}

	return pipelines, nil
}

func (f *fakeEngine) FetchApplications(_ context.Context) ([]*models.Application, error) {
	return f.applications, nil
}

func (f *fakeEngine) SavePipeline(_ context.Context, pipeline *models.Pipeline) (*models.Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	saved := *pipeline
	if saved.ID == 0 {
		f.nextID++
		saved.ID = f.nextID
	}

	f.pipelines[saved.ID] = &saved

	return &saved, nil
}

func (f *fakeEngine) DeletePipeline(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.pipelines[id]; !ok {
		return engine.ErrPipelineNotFound
	}

	delete(f.pipelines, id)

	return nil
}

func (f *fakeEngine) ExecuteRun(_ context.Context, request models.RunRequest) (*models.Run, error) {
	run := *f.run
	run.ApplicationID = request.ApplicationID
	run.PipelineID = request.PipelineID

	return &run, nil
}
