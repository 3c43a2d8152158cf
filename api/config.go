// Package api provides the switchboard HTTP server: the chat turn endpoint,
// health and metrics routes, and the MCP mount.
package api

import "net/http"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// MCPHandler is mounted on /mcp when set.
	MCPHandler http.Handler
}
