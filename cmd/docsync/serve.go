package main

import (
	"github.com/dshills/docsync/internal/mcp"
)

// ServeCmd runs the MCP server on stdio.
type ServeCmd struct{}

func (c *ServeCmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}
	store, err := g.openStore()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(a.pipeline, store, version)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(a.log)
	defer stop()

	// Start server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		a.log.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		a.log.Info("server stopped")
		return nil
	case err := <-errChan:
		return err
	}
}
