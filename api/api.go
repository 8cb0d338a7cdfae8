package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/sassy/api/mcp"
	"github.com/papercomputeco/sassy/pkg/memory"
	"github.com/papercomputeco/sassy/pkg/nourish"
)

// Server is the API server for storing and recalling memories.
type Server struct {
	config Config
	engine *memory.Engine
	logger *slog.Logger
	app    *fiber.App

	// ctx outlives requests; nourishment runs started over HTTP use it.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new API server.
// The engine is injected so the serve command can share it with the
// background nourishment pipeline.
func NewServer(config Config, engine *memory.Engine, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, memory.ErrNotConfigured
	}
	if config.NewMonitor == nil {
		config.NewMonitor = func() nourish.Monitor { return nourish.NewLogMonitor(logger) }
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config: config,
		engine: engine,
		logger: logger,
		app:    app,
		ctx:    ctx,
		cancel: cancel,
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Engine: engine,
		Logger: logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Post("/memories", s.handleWriteMemory)
	v1.Get("/memories/recent", s.handleRecentMemories)
	v1.Put("/memories/:id/relevance", s.handleUpdateRelevance)
	v1.Post("/memories/:id/categories", s.handleAddCategory)
	v1.Get("/categories/:category", s.handleByCategory)
	v1.Get("/search", s.handleSearchEndpoint)
	v1.Get("/interactions", s.handleRecentInteractions)
	v1.Post("/interactions", s.handleAddInteraction)
	v1.Get("/related", s.handleRelatedTopics)
	v1.Get("/nourish", s.handleNourishStatus)
	v1.Post("/nourish", s.handleNourishStart)
	v1.Delete("/nourish", s.handleNourishStop)

	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown stops any nourishment run started over HTTP and gracefully shuts
// down the API server.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}
