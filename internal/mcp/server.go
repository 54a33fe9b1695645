// Package mcp exposes the store as MCP tools for agent clients over
// stdio. Tool names and payloads match the JSON-RPC surface.
package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/serbi2012/time-manager/internal/store"
)

const serverInstructions = `Work time tracker. Start and stop a single
global timer against named work records, edit recorded sessions (overlaps
are auto-adjusted or rejected), and manage templates and settings. Times
are minute-granular "HH:MM" strings; dates are "YYYY-MM-DD".`

// NewServer creates an MCP server with all tools registered.
func NewServer(st *store.Store, logger *slog.Logger) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "time-manager",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerTools(server, st)

	return server
}
