// Package api provides the HTTP API server exposing the keepsake memory
// operation surface.
package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/keepsakehq/keepsake/pkg/coordinator"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8450")
	ListenAddr string
}

// Server is the API server for the keepsake memory engine.
type Server struct {
	config Config
	coord  *coordinator.Coordinator
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server. The coordinator is injected to allow
// sharing with the MCP server.
func NewServer(config Config, coord *coordinator.Coordinator, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		coord:  coord,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	app.Post("/memories", s.handleStore)
	app.Post("/memories/query", s.handleQuery)
	app.Post("/memories/topics", s.handleQueryByTopic)
	app.Post("/memories/list", s.handleListAll)
	app.Post("/memories/details", s.handleGetAll)
	app.Post("/memories/stats", s.handleStats)
	app.Post("/memories/sync-status", s.handleSyncStatus)
	app.Post("/memories/clear", s.handleClearAll)
	app.Put("/memories/:id", s.handleUpdate)
	app.Delete("/memories/:id", s.handleDelete)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
