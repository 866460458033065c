// Package mcp exposes the regulation index to agents as Model Context
// Protocol tools served over stdio.
package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dgallion1/regindex/internal/search"
)

// ServerName is the MCP server name.
const ServerName = "regindex"

// Server wraps the MCP server with the live index.
type Server struct {
	mcp      *server.MCPServer
	searcher *search.Searcher
	maxLimit int
	log      *slog.Logger
}

// NewServer creates an MCP server answering from searcher. maxLimit caps
// the number of hits a single search may return.
func NewServer(searcher *search.Searcher, maxLimit int, version string, log *slog.Logger) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, version),
		searcher: searcher,
		maxLimit: max(1, maxLimit),
		log:      log,
	}
	s.registerTools()
	return s
}

// Serve reads requests from in and writes responses to out until ctx is
// canceled or in is exhausted.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.log.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchTool(s.maxLimit), s.handleSearch)
	s.mcp.AddTool(quoteTool(), s.handleQuote)
	s.mcp.AddTool(statsTool(), s.handleStats)
}
