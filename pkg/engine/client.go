package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/lendkit/decisor/pkg/models"
	"github.com/lendkit/decisor/pkg/otelhelper"
)

const defaultTimeout = 30 * time.Second

// API is the collaborator contract consumed by the studio. Everything behind
// it — persistence, step execution, condition evaluation — is owned by the
// engine service.
type API interface {
	FetchStepCatalog(ctx context.Context) ([]models.CatalogEntry, error)
	FetchPipeline(ctx context.Context, id int64) (*models.Pipeline, error)
	FetchPipelines(ctx context.Context) ([]*models.Pipeline, error)
	FetchApplications(ctx context.Context) ([]*models.Application, error)
	SavePipeline(ctx context.Context, pipeline *models.Pipeline) (*models.Pipeline, error)
	DeletePipeline(ctx context.Context, id int64) error
	ExecuteRun(ctx context.Context, request models.RunRequest) (*models.Run, error)
}

// Client talks to the decision engine over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     oteltrace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTracer enables a span per engine call.
func WithTracer(tracer oteltrace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// NewClient creates a client for the engine at baseURL (e.g.
// "http://localhost:8000").
func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// catalogResponse matches the engine's GET /api/steps/catalog payload.
type catalogResponse struct {
	Steps []models.CatalogEntry `json:"steps"`
}

func (c *Client) FetchStepCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	var response catalogResponse
	if err := c.do(ctx, "FetchStepCatalog", http.MethodGet, "/api/steps/catalog", nil, &response); err != nil {
		return nil, err
	}

	return response.Steps, nil
}

func (c *Client) FetchPipeline(ctx context.Context, id int64) (*models.Pipeline, error) {
	var pipeline models.Pipeline
	if err := c.do(ctx, "FetchPipeline", http.MethodGet, fmt.Sprintf("/api/pipelines/%d", id), nil, &pipeline); err != nil {
		return nil, err
	}

	return &pipeline, nil
}

func (c *Client) FetchPipelines(ctx context.Context) ([]*models.Pipeline, error) {
	var pipelines []*models.Pipeline
	if err := c.do(ctx, "FetchPipelines", http.MethodGet, "/api/pipelines", nil, &pipelines); err != nil {
		return nil, err
	}

	return pipelines, nil
}

func (c *Client) FetchApplications(ctx context.Context) ([]*models.Application, error) {
	var applications []*models.Application
	if err := c.do(ctx, "FetchApplications", http.MethodGet, "/api/applications", nil, &applications); err != nil {
		return nil, err
	}

	return applications, nil
}

// SavePipeline creates or updates a pipeline; create vs update is selected by
// the presence of an identity. The document is schema-checked before it goes
// on the wire.
func (c *Client) SavePipeline(ctx context.Context, pipeline *models.Pipeline) (*models.Pipeline, error) {
	if err := models.ValidatePipelineDocument(pipeline); err != nil {
		return nil, &ValidationError{Detail: err.Error()}
	}

	method := http.MethodPost
	path := "/api/pipelines"

	if pipeline.ID != 0 {
		method = http.MethodPut
		path = fmt.Sprintf("/api/pipelines/%d", pipeline.ID)
	}

	var saved models.Pipeline
	if err := c.do(ctx, "SavePipeline", method, path, pipeline, &saved); err != nil {
		return nil, err
	}

	return &saved, nil
}

func (c *Client) DeletePipeline(ctx context.Context, id int64) error {
	return c.do(ctx, "DeletePipeline", http.MethodDelete, fmt.Sprintf("/api/pipelines/%d", id), nil, nil)
}

// ExecuteRun asks the engine to run a pipeline against an application. The
// result is opaque computation; the studio only renders it.
func (c *Client) ExecuteRun(ctx context.Context, request models.RunRequest) (*models.Run, error) {
	var run models.Run
	if err := c.do(ctx, "ExecuteRun", http.MethodPost, "/api/runs", request, &run); err != nil {
		return nil, err
	}

	return &run, nil
}

// engineProblem matches the engine's error payload shape.
type engineProblem struct {
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	if c.tracer != nil {
		var span oteltrace.Span

		ctx, span = otelhelper.StartSpan(ctx, c.tracer, "engine."+op,
			attribute.String(otelhelper.EngineOpKey, op),
		)
		defer span.End()

		if err := c.doRequest(ctx, op, method, path, body, out); err != nil {
			otelhelper.SetError(span, err)

			return err
		}

		return nil
	}

	return c.doRequest(ctx, op, method, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Op: op, Err: err}
		}

		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}

	request.Header.Set("Accept", "application/json")

	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}

	defer func() {
		if closeErr := response.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close engine response body", "op", op, "error", closeErr)
		}
	}()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return &RequestError{Op: op, Status: response.StatusCode, Err: err}
	}

	if response.StatusCode >= http.StatusBadRequest {
		return c.statusError(op, response.StatusCode, payload)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return &RequestError{Op: op, Status: response.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

func (c *Client) statusError(op string, status int, payload []byte) error {
	detail := strings.TrimSpace(string(payload))

	var problem engineProblem
	if err := json.Unmarshal(payload, &problem); err == nil && problem.Detail != "" {
		detail = problem.Detail
	}

	switch status {
	case http.StatusNotFound:
		err := ErrPipelineNotFound
		if strings.Contains(strings.ToLower(detail), "application") {
			err = ErrApplicationNotFound
		}

		return &RequestError{Op: op, Status: status, Err: err}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &RequestError{Op: op, Status: status, Err: &ValidationError{Detail: detail}}
	default:
		return &RequestError{Op: op, Status: status, Err: fmt.Errorf("%s", detail)}
	}
}
