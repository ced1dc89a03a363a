// Package mcp wires subagentd's tool surface onto the real MCP Go SDK.
package mcp

import (
	"context"
	"net/http"

	"github.com/fenwick-labs/subagentd/internal/logger"
	"github.com/fenwick-labs/subagentd/internal/metrics"
	"github.com/fenwick-labs/subagentd/internal/subagent"
	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server with subagentd's job manager and tool
// registry.
type Server struct {
	manager   *subagent.Manager
	registry  *Registry
	mcpServer *mcp_sdk.Server
}

// NewServer constructs a Server and registers its tool surface.
func NewServer(manager *subagent.Manager) *Server {
	s := &Server{
		manager:  manager,
		registry: NewRegistry(),
	}
	s.registerAllTools(s.registry)
	return s
}

// GetRegistry returns the tool registry for external inspection (e.g.
// coverage tooling).
func (s *Server) GetRegistry() *Registry {
	return s.registry
}

// Run starts the MCP server over line-delimited stdio. It blocks until
// the transport closes (the coordinator disconnects) or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.mcpServer = mcp_sdk.NewServer(&mcp_sdk.Implementation{
		Name:    "subagentd",
		Version: "0.1.0",
	}, nil)
	s.registry.RegisterWithMCPServer(s.mcpServer)

	logger.Slog().Info("subagentd starting", "transport", "stdio")
	return s.mcpServer.Run(ctx, &mcp_sdk.StdioTransport{})
}

// ServeMetrics starts the loopback-only HTTP side port that exposes
// Prometheus metrics. It must never be reachable from outside the host:
// subagentd's JSON-RPC wire is stdio, not HTTP, and this port exists only
// for local scraping.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	logger.Slog().Info("metrics side port listening", "addr", addr)
	return http.ListenAndServe(addr, metrics.Middleware(mux))
}
