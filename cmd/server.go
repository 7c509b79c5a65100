package cmd

import (
	"io"
	"os"

	"github.com/cnosuke/deploy-gcp/executor"
	"github.com/cnosuke/deploy-gcp/server"
	"github.com/urfave/cli/v2"
)

// NewServerCommand creates the serve command
func NewServerCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "s"},
		Usage:   "Start an MCP server on stdio exposing deploy_plan, deploy_check and deploy_apply",
		Action:  runServer,
	}
}

// runServer starts the server
func runServer(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Stdout belongs to the protocol: tool output goes to stderr and the
	// spinner never draws, even when CLI_SHOW_PROGRESS is set.
	runner := newRunner(cfg, executor.WithStdout(os.Stderr), executor.WithStderr(io.Discard))
	show := false
	runner.Settings().Configure(executor.ProgressOverrides{Show: &show})

	return server.Run(c.Context, cfg, runner, baseDir)
}
