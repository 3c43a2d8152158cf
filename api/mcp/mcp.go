// Package mcp provides an MCP (Model Context Protocol) server that lets MCP
// clients hold a conversation with the switchboard assistant.
package mcp

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/switchboard/orchestrator"
	"github.com/papercomputeco/switchboard/pkg/assistant"
	"github.com/papercomputeco/switchboard/pkg/utils"
)

// TurnHandler answers one chat turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, turn assistant.Turn) (*orchestrator.Response, error)
}

type Config struct {
	// Turns handles send_turn calls.
	Turns TurnHandler

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the send_turn tool.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "switchboard",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Turns == nil {
			return nil, errors.New("turn handler is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        sendTurnToolName,
			Description: sendTurnDescription,
		}, s.handleSendTurn)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}
