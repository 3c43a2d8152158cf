package api

import (
	"context"
	"errors"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	validator "gopkg.in/go-playground/validator.v9"

	"github.com/papercomputeco/switchboard/orchestrator"
	"github.com/papercomputeco/switchboard/pkg/assistant"
)

// TurnHandler answers one chat turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn assistant.Turn) (*orchestrator.Response, error)
}

// Server is the API server for relaying chat turns to the assistant.
type Server struct {
	config   Config
	turns    TurnHandler
	validate *validator.Validate
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server.
func NewServer(config Config, turns TurnHandler, logger *zap.Logger) (*Server, error) {
	if turns == nil {
		return nil, errors.New("turn handler is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		turns:    turns,
		validate: validator.New(),
		logger:   logger,
		app:      app,
	}

	app.Use(s.accessLog)

	app.Get("/ping", s.handlePing)
	app.Post("/api/chatbotapi", s.handleChatTurn)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s, nil
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

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}
