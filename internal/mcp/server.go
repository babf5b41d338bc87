package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/docsync/internal/logger"
	"github.com/dshills/docsync/internal/pipeline"
	"github.com/dshills/docsync/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "docsync"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	pipeline *pipeline.Pipeline
	storage  storage.Storage // optional run history
	log      *slog.Logger
}

// NewServer creates a new MCP server instance. store may be nil, in which
// case runs are not recorded.
func NewServer(p *pipeline.Pipeline, store storage.Storage, version string) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline is required")
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		version,
	)

	s := &Server{
		mcp:      mcpServer,
		pipeline: p,
		storage:  store,
		log:      logger.ForComponent("mcp"),
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	if s.storage != nil {
		defer func() { _ = s.storage.Close() }()
	}
	s.log.Info("serving MCP over stdio", "recording", s.storage != nil)
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(collectBlocksTool(), s.handleCollectBlocks)
	s.mcp.AddTool(getBlockTool(), s.handleGetBlock)
	s.mcp.AddTool(checkDocsTool(), s.handleCheckDocs)
	s.mcp.AddTool(syncDocsTool(), s.handleSyncDocs)
	return nil
}
