package services

import (
	"context"
	"sync"

	"github.com/lendkit/decisor/pkg/engine"
	"github.com/lendkit/decisor/pkg/models"
)

var errNotFound = engine.ErrPipelineNotFound

// stubEngine is an in-memory engine.API used by the service tests. Optional
// started/release channel pairs let a test hold a call open to exercise the
// in-flight guards.
type stubEngine struct {
	mu sync.Mutex

	catalog      []models.CatalogEntry
	pipelines    map[int64]*models.Pipeline
	applications []*models.Application
	run          *models.Run

	saved  []*models.Pipeline
	nextID int64

	fetchStarted chan struct{}
	fetchRelease chan struct{}
	saveStarted  chan struct{}
	saveRelease  chan struct{}
}

func newStubEngine() *stubEngine {
	return &stubEngine{
		catalog: []models.CatalogEntry{
			{StepType: "dti_rule", DefaultParams: map[string]any{"max_dti": 0.4}},
			{StepType: "risk_scoring", DefaultParams: map[string]any{"threshold": 45.0}},
		},
		pipelines: map[int64]*models.Pipeline{},
		nextID:    100,
	}
}

func (s *stubEngine) FetchStepCatalog(_ context.Context) ([]models.CatalogEntry, error) {
	return s.catalog, nil
}

func (s *stubEngine) FetchPipeline(_ context.Context, id int64) (*models.Pipeline, error) {
	if s.fetchStarted != nil {
		s.fetchStarted <- struct{}{}
		<-s.fetchRelease
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pipeline, ok := s.pipelines[id]
	if !ok {
		return nil, errNotFound
	}

	return pipeline, nil
}

func (s *stubEngine) FetchPipelines(_ context.Context) ([]*models.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pipelines := make([]*models.Pipeline, 0, len(s.pipelines))
	for _, pipeline := range s.pipelines {
		pipelines = append(pipelines, pipeline)
	}

	return pipelines, nil
}

func (s *stubEngine) FetchApplications(_ context.Context) ([]*models.Application, error) {
	return s.applications, nil
}

func (s *stubEngine) SavePipeline(_ context.Context, pipeline *models.Pipeline) (*models.Pipeline, error) {
	if s.saveStarted != nil {
		s.saveStarted <- struct{}{}
		<-s.saveRelease
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *pipeline
	if saved.ID == 0 {
		s.nextID++
		saved.ID = s.nextID
	}

	s.pipelines[saved.ID] = &saved
	s.saved = append(s.saved, &saved)

	return &saved, nil
}

func (s *stubEngine) DeletePipeline(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pipelines[id]; !ok {
		return errNotFound
	}

	delete(s.pipelines, id)

	return nil
}

func (s *stubEngine) ExecuteRun(_ context.Context, request models.RunRequest) (*models.Run, error) {
	run := *s.run
	run.ApplicationID = request.ApplicationID
	run.PipelineID = request.PipelineID

	return &run, nil
}

func (s *stubEngine) lastSaved() *models.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.saved) == 0 {
		return nil
	}

	return s.saved[len(s.saved)-1]
}
