// Package main provides the pipeline studio API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/lendkit/decisor/pkg/engine"
	"github.com/lendkit/decisor/pkg/services"
	"github.com/lendkit/decisor/pkg/web"
)

type API struct {
	logger   *slog.Logger
	engine   engine.API
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, engineAPI engine.API) *API {
	return &API{
		logger:   logger,
		engine:   engineAPI,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	sessions := services.NewSessionStore(a.engine, a.logger)
	runner := services.NewRunner(a.engine, a.logger)

	handlers := web.NewAPIHandlers(sessions, runner, a.engine, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Decisor Studio API")
	})

	s := app.Group("/sessions")
	s.Post("/", handlers.CreateSession)
	s.Get("/:id", handlers.GetSession)
	s.Patch("/:id", handlers.UpdateSession)
	s.Delete("/:id", handlers.CloseSession)
	s.Post("/:id/save", handlers.SaveSession)

	// Step rows:
	s.Post("/:id/steps", handlers.AddStep)
	s.Patch("/:id/steps/:index", handlers.UpdateStep)
	s.Post("/:id/steps/:index/move", handlers.MoveStep)
	s.Delete("/:id/steps/:index", handlers.RemoveStep)

	// Terminal rule rows:
	s.Post("/:id/rules", handlers.AddRule)
	s.Patch("/:id/rules/:index", handlers.UpdateRule)
	s.Post("/:id/rules/:index/move", handlers.MoveRule)
	s.Delete("/:id/rules/:index", handlers.RemoveRule)

	app.Get("/pipelines", handlers.GetPipelines)
	app.Delete("/pipelines/:id", handlers.DeletePipeline)

	app.Get("/runs/selection", handlers.GetRunSelection)
	app.Post("/runs", handlers.ExecuteRun)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
