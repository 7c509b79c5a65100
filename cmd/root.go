package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cnosuke/deploy-gcp/logger"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
)

var (
	DefaultConfigPath = "deploy.yml"
)

// Execute runs the root command
func Execute(name, version, revision string) {
	app := NewApp(name, version, revision)

	// Interrupts cancel the running command, which kills its process group.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		stop()
		os.Exit(1)
	}
}

// NewApp builds the CLI application
func NewApp(name, version, revision string) *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s (%s)", version, revision)
	app.Name = name
	app.Usage = "Deploy Cloud Run, Cloud Run jobs and Firebase Hosting from env files"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "chdir",
			Aliases: []string{"C"},
			Value:   ".",
			Usage:   "working directory holding the env files",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   DefaultConfigPath,
			Usage:   "path to an optional YAML configuration file",
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "write logs to this file instead of stderr",
		},
	}
	app.Before = setup
	app.After = func(*cli.Context) error {
		logger.Sync()
		return nil
	}

	// Add subcommands
	app.Commands = []*cli.Command{
		NewPlanCommand(),
		NewDeployCommand(),
		NewCheckCommand(),
		NewInitCommand(),
		NewServerCommand(),
	}

	return app
}

// setup changes into --chdir and initializes the logger
func setup(c *cli.Context) error {
	dir := c.String("chdir")
	stat, err := os.Stat(dir)
	if err != nil || !stat.IsDir() {
		return errors.Newf("directory does not exist: %s", dir)
	}
	if err := os.Chdir(dir); err != nil {
		return errors.Wrapf(err, "failed to change directory to %s", dir)
	}

	if err := logger.InitLogger(c.Bool("verbose"), c.String("log")); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	return nil
}
