package server

import (
	"context"

	"github.com/cnosuke/deploy-gcp/config"
	"github.com/cnosuke/deploy-gcp/executor"
	"github.com/cnosuke/deploy-gcp/gcp"
	"github.com/cnosuke/deploy-gcp/server/tools"
	"github.com/cockroachdb/errors"
	mcp "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport/stdio"
	"go.uber.org/zap"
)

// Run - Execute the MCP server until ctx is done. Stdout carries the
// protocol, so runner must not write to it.
func Run(ctx context.Context, cfg *config.Config, runner executor.CommandRunner, baseDir string) error {
	zap.S().Infow("starting MCP deploy server")

	deployServer := NewDeployServer(cfg, gcp.NewClient(runner, cfg), baseDir)

	// Create server with stdio transport
	zap.S().Debugw("creating MCP server with stdio transport")
	transport := stdio.NewStdioServerTransport()
	server := mcp.NewServer(transport)

	// Register all tools
	zap.S().Debugw("registering tools")
	if err := tools.RegisterAllTools(ctx, server, deployServer); err != nil {
		zap.S().Errorw("failed to register tools", "error", err)
		return err
	}

	// Start the server
	zap.S().Infow("starting MCP server")
	if err := server.Serve(); err != nil {
		zap.S().Errorw("failed to start server", "error", err)
		return errors.Wrap(err, "failed to start server")
	}

	zap.S().Infow("waiting for requests...")
	<-ctx.Done()
	zap.S().Infow("server shutting down")
	return nil
}
