package web

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/lendkit/decisor/pkg/editor"
	"github.com/lendkit/decisor/pkg/engine"
	"github.com/lendkit/decisor/pkg/services"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps the service and editor error taxonomy onto problem
// responses. Every failure is surfaced at the request that triggered it; none
// aborts unrelated session state.
func handleServiceError(c fiber.Ctx, err error) error {
	if aggregate, ok := editor.AsAggregateValidationError(err); ok {
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("payload_validation_error").
			WithDetail(aggregate.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)
	}

	switch {
	case services.IsSessionNotFound(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("session_not_found").
			WithDetail("editing session not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	case services.IsSaveInProgress(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("save_in_progress").
			WithDetail("a save is already in progress for this session")

		return c.Status(fiber.StatusConflict).JSON(problem)

	case errors.Is(err, services.ErrStaleHydration):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("stale_hydration").
			WithDetail("the session changed while its pipeline was being loaded")

		return c.Status(fiber.StatusConflict).JSON(problem)

	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case editor.IsIndexOutOfRange(err):
		return badRequest(c, err.Error())

	case engine.IsNotFound(err):
		return notFound(c, err.Error())

	case engine.IsValidationError(err):
		return badRequest(c, err.Error())

	default:
		var request *engine.RequestError
		if errors.As(err, &request) {
			problem := problems.NewStatusProblem(502).
				WithInstance(c.Path()).
				WithType("engine_unavailable").
				WithDetail(fmt.Sprintf("decision engine call failed: %v", request))

			return c.Status(fiber.StatusBadGateway).JSON(problem)
		}

		return internalError(c, err)
	}
}
