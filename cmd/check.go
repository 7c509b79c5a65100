package cmd

import (
	"fmt"

	"github.com/cnosuke/deploy-gcp/gcp"
	"github.com/cnosuke/deploy-gcp/orchestrator"
	"github.com/urfave/cli/v2"
)

// NewCheckCommand creates the check command
func NewCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Inspect GCP resources and configuration before deploying; changes nothing",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "show every finding instead of only the issues",
			},
		},
		Action: runCheck,
	}
}

func runCheck(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	client := gcp.NewClient(newRunner(cfg), cfg)
	report, hasIssues := orchestrator.Check(c.Context, cfg, client, baseDir, c.Bool("all"))
	fmt.Fprintln(c.App.Writer, report)

	if hasIssues {
		return cli.Exit("", 1)
	}
	return nil
}
