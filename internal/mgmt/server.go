// Package mgmt exposes the administrative REST API: CRUD over tasks, users
// and sprints, plus health and metrics endpoints.
package mgmt

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/planwise/sprintbot/internal/health"
	"github.com/planwise/sprintbot/internal/metrics"
	"github.com/planwise/sprintbot/internal/store"
)

// ServerConfig holds configuration for the management API server.
type ServerConfig struct {
	ListenAddr string
	APIKey     string // empty disables auth (development only)
}

// Server is the management API Fiber application.
type Server struct {
	app    *fiber.App
	config ServerConfig
	logger zerolog.Logger
}

// NewServer creates and configures the management API server.
func NewServer(
	cfg ServerConfig,
	st *store.Store,
	checker *health.Checker,
	m *metrics.Metrics,
	invalidator Invalidator,
	logger zerolog.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	logger = logger.With().Str("component", "mgmt").Logger()

	app.Use(recover.New())
	app.Use(newAuthMiddleware(cfg.APIKey, logger))
	app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if path != "/healthz" && path != "/readyz" && path != "/metrics" {
			logger.Info().Str("method", c.Method()).Str("path", path).Str("ip", c.IP()).Msg("mgmt api request")
		}
		return c.Next()
	})

	h := newHandlers(st, invalidator, logger)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/readyz", func(c *fiber.Ctx) error {
		if !checker.Ready(c.Context()) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := app.Group("/api")
	api.Get("/tasks", h.listTasks)
	api.Post("/tasks", h.createTask)
	api.Get("/tasks/:id", h.getTask)
	api.Put("/tasks/:id", h.updateTask)
	api.Delete("/tasks/:id", h.deleteTask)
	api.Get("/users", h.listUsers)
	api.Post("/users", h.createUser)
	api.Get("/users/:id", h.getUser)
	api.Put("/users/:id", h.updateUser)
	api.Delete("/users/:id", h.deleteUser)
	api.Get("/sprints", h.listSprints)
	api.Post("/sprints", h.createSprint)

	return &Server{app: app, config: cfg, logger: logger}
}

// newAuthMiddleware validates the X-API-Key header. Probe endpoints stay
// open; everything else is rejected when a key is configured.
func newAuthMiddleware(apiKey string, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			return c.Next()
		}
		path := c.Path()
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}
		if c.Get("X-API-Key") != apiKey {
			logger.Warn().Str("ip", c.IP()).Str("path", path).Msg("mgmt api auth rejected")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid api key"})
		}
		return c.Next()
	}
}

// Start listens and serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.config.ListenAddr).Msg("management API starting")
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying Fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
