package web

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/lendkit/decisor/pkg/editor"
	"github.com/lendkit/decisor/pkg/engine"
	"github.com/lendkit/decisor/pkg/models"
	"github.com/lendkit/decisor/pkg/services"
)

// APIHandlers serves the studio REST endpoints.
type APIHandlers struct {
	sessions  *services.SessionStore
	runner    *services.Runner
	engine    engine.API
	validator *validator.Validate
	logger    *slog.Logger
}

// NewAPIHandlers wires the handler set.
func NewAPIHandlers(
	sessions *services.SessionStore,
	runner *services.Runner,
	engineAPI engine.API,
	validate *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		sessions:  sessions,
		runner:    runner,
		engine:    engineAPI,
		validator: validate,
		logger:    logger,
	}
}

// CreateSession opens an editing session: the step catalog is loaded for it
// and, in edit mode, the existing pipeline is hydrated into it.
func (h *APIHandlers) CreateSession(c fiber.Ctx) error {
	var req CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	builder := h.sessions.Create()

	if err := builder.LoadCatalog(c.Context()); err != nil {
		h.closeQuietly(builder.ID())

		return handleServiceError(c, err)
	}

	if req.PipelineID != nil {
		if err := builder.Hydrate(c.Context(), *req.PipelineID); err != nil {
			h.closeQuietly(builder.ID())

			return handleServiceError(c, err)
		}
	}

	state, err := builder.State()
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(state)
}

func (h *APIHandlers) closeQuietly(sessionID string) {
	if err := h.sessions.Close(sessionID); err != nil {
		h.logger.Warn("Failed to close session", "session_id", sessionID, "error", err)
	}
}

// GetSession returns the current session snapshot.
func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	builder, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	state, err := builder.State()
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(state)
}

// UpdateSession sets pipeline name and description.
func (h *APIHandlers) UpdateSession(c fiber.Ctx) error {
	builder, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	var req UpdateSessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if req.Name != nil {
		if err := builder.SetName(*req.Name); err != nil {
			return handleServiceError(c, err)
		}
	}

	if req.Description != nil {
		if err := builder.SetDescription(*req.Description); err != nil {
			return handleServiceError(c, err)
		}
	}

	return h.respondWithState(c, builder)
}

// CloseSession discards the session and everything edited in it.
func (h *APIHandlers) CloseSession(c fiber.Ctx) error {
	if err := h.sessions.Close(c.Params("id")); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// AddStep appends a step of the catalog's default type.
func (h *APIHandlers) AddStep(c fiber.Ctx) error {
	builder, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if err := builder.AddStep(); err != nil {
		return handleServiceError(c, err)
	}

	return h.respondWithState(c, builder)
}

// UpdateStep changes a step's type or records in-progress parameter text.
func (h *APIHandlers) UpdateStep(c fiber.Ctx) error {
	builder, index, ok, resp := h.sessionAndIndex(c)
	if !ok {
		return resp
	}

	var req UpdateStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.StepType != nil {
		if err := builder.ChangeStepType(index, models.StepType(*req.StepType)); err != nil {
			return handleServiceError(c, err)
		}
	}

	if req.RawParams != nil {
		if err := builder.SetStepRawParams(index, *req.RawParams); err != nil {
			return handleServiceError(c, err)
		}
	}

	return h.respondWithState(c, builder)
}

// MoveStep reorders a step one position up or down.
func (h *APIHandlers) MoveStep(c fiber.Ctx) error {
	builder, index, ok, resp := h.sessionAndIndex(c)
	if !ok {
		return resp
	}

	direction, ok, resp := h.parseMove(c)
	if !ok {
		return resp
	}

	if err := builder.MoveStep(index, direction); err != nil {
		return handleServiceError(c, err)
	}

	return h.respondWithState(c, builder)
}

// RemoveStep deletes a step row.
func (h *APIHandlers) RemoveStep(c fiber.Ctx) error {
	builder, index, ok, resp := h.sessionAndIndex(c)
	if !ok {
		return resp
	}

	if err := builder.RemoveStep(index); err != nil {
		return handleServiceError(c, err)
	}

	return h.respondWithState(c, builder)
}

// AddRule appends an empty terminal rule.
func (h *APIHandlers) AddRule(c fiber.Ctx) error {
	builder, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if err := builder.AddRule(); err != nil {
		return handleServiceError(c, err)
	}

	return h.respondWithState(c, builder)
}

// UpdateRule changes a rule's condition or outcome.
func (h *APIHandlers) UpdateRule(c fiber.Ctx) error {
	builder, index, ok, resp := h.sessionAndIndex(c)
	if !ok {
		return resp
	}

	var req UpdateRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.Condition != nil {
		if err := builder.SetRuleCondition(index, *req.Condition); err != nil {
			return handleServiceError(c, err)
		}
	}

	if req.Outcome != nil {
		if err := builder.SetRuleOutcome(index, models.FinalStatus(*req.Outcome)); err != nil {
			return handleServiceError(c, err)
		}
	}

	return h.respondWithState(c, builder)
}

// MoveRule reorders a rule one position up or down.
func (h *APIHandlers) MoveRule(c fiber.Ctx) error {
	builder, index, ok, resp := h.sessionAndIndex(c)
	if !ok {
		return resp
	}

	direction, ok, resp := h.parseMove(c)
	if !ok {
		return resp
	}

	if err := builder.MoveRule(index, direction); err != nil {
		return handleServiceError(c, err)
	}

	return h.respondWithState(c, builder)
}

// RemoveRule deletes a rule row.
func (h *APIHandlers) RemoveRule(c fiber.Ctx) error {
	builder, index, ok, resp := h.sessionAndIndex(c)
	if !ok {
		return resp
	}

	if err := builder.RemoveRule(index); err != nil {
		return handleServiceError(c, err)
	}

	return h.respondWithState(c, builder)
}

// SaveSession materializes the session and persists it through the engine.
func (h *APIHandlers) SaveSession(c fiber.Ctx) error {
	builder, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	saved, err := builder.Save(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(saved)
}

// GetPipelines lists the persisted pipelines.
func (h *APIHandlers) GetPipelines(c fiber.Ctx) error {
	pipelines, err := h.engine.FetchPipelines(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(pipelines)
}

// DeletePipeline removes a persisted pipeline.
func (h *APIHandlers) DeletePipeline(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return badRequest(c, "Pipeline ID must be a positive integer")
	}

	if err := h.engine.DeletePipeline(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetRunSelection lists the applications and pipelines available for a run.
func (h *APIHandlers) GetRunSelection(c fiber.Ctx) error {
	selection, err := h.runner.Selection(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(selection)
}

// ExecuteRun runs a pipeline against an application and returns the rendered
// trace, including the inconsistency marker when the engine's rule logs break
// their contract.
func (h *APIHandlers) ExecuteRun(c fiber.Ctx) error {
	var req ExecuteRunRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	rendered, err := h.runner.Execute(c.Context(), models.RunRequest{
		ApplicationID: req.ApplicationID,
		PipelineID:    req.PipelineID,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(rendered)
}

func (h *APIHandlers) respondWithState(c fiber.Ctx, builder *services.Builder) error {
	state, err := builder.State()
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(state)
}

// sessionAndIndex resolves the session and row index of a step/rule route.
// When ok is false the response has already been written.
func (h *APIHandlers) sessionAndIndex(c fiber.Ctx) (builder *services.Builder, index int, ok bool, resp error) {
	builder, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return nil, 0, false, handleServiceError(c, err)
	}

	index, err = strconv.Atoi(c.Params("index"))
	if err != nil || index < 0 {
		return nil, 0, false, badRequest(c, "Index must be a non-negative integer")
	}

	return builder, index, true, nil
}

// parseMove decodes a move request. When ok is false the response has already
// been written.
func (h *APIHandlers) parseMove(c fiber.Ctx) (direction editor.Direction, ok bool, resp error) {
	var req MoveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return "", false, badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return "", false, badRequest(c, err.Error())
	}

	return editor.Direction(req.Direction), true, nil
}
