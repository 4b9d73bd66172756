// Package main provides the flows API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/engine"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/eventbus"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/persistence"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/registry"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/services"
	"github.com/Terapeutawelder/acolheaqui-sub003/pkg/web"
)

type API struct {
	logger      *slog.Logger
	coordinator *engine.Coordinator
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	coordinator *engine.Coordinator,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *API {
	return &API{
		logger:      logger,
		coordinator: coordinator,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	flowService := services.NewFlow(a.persistence, a.registry, a.validate)
	executionService := services.NewExecution(a.persistence)

	handlers := web.NewAPIHandlers(a.coordinator, flowService, executionService, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Acolhe Aqui Flows API")
	})

	t := app.Group("/triggers")
	t.Post("/message", handlers.TriggerMessage)
	t.Post("/event", handlers.TriggerEvent)
	t.Post("/webhook/:ownerId", handlers.TriggerWebhook)

	f := app.Group("/flows")
	f.Get("/", handlers.GetFlows)
	f.Post("/", handlers.CreateFlow)
	f.Get("/:id", handlers.GetFlow)
	f.Patch("/:id/active", handlers.SetFlowActive)
	f.Get("/:id/executions", handlers.GetFlowExecutions)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Get("/:id/log", handlers.GetExecutionLog)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
