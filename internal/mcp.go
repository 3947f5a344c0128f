package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/tabtidy/internal/mcpserver"
	"github.com/starford/tabtidy/internal/storage"
)

// ServeMCP runs the MCP server on stdin/stdout. File tools are confined to the
// configured documents root.
func ServeMCP(_ context.Context, version string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(app.config.Documents.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	eng := app.newEngine(store)

	app.logger.Info("Starting MCP server", slog.String("documents_root", store.Root()))
	if err := mcpserver.New(eng.svc, version).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
