package cmd

import (
	"fmt"

	"github.com/cnosuke/deploy-gcp/config"
	"github.com/cnosuke/deploy-gcp/orchestrator"
	"github.com/urfave/cli/v2"
)

// NewPlanCommand creates the plan command
func NewPlanCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Summarize the configuration and show which sections are ENABLED or SKIPPED",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "also print the raw values of .env.infra, .env.secrets and .env.services",
			},
		},
		Action: runPlan,
	}
}

func runPlan(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	report := orchestrator.Plan(cfg)
	if c.Bool("all") {
		dump, err := config.RenderEnvFiles(baseDir)
		if err != nil {
			return err
		}
		report += "\n\n## Raw env from files\n" + dump
	}

	fmt.Fprintln(c.App.Writer, report)
	return nil
}
