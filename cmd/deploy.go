package cmd

import (
	"fmt"

	"github.com/cnosuke/deploy-gcp/gcp"
	"github.com/cnosuke/deploy-gcp/orchestrator"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// NewDeployCommand creates the deploy command
func NewDeployCommand() *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Create or update resources and deploy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "only",
				Usage: "comma separated sections (backend,etl,bq,sql,gcs,secrets,frontend,firebase); defaults to the ENABLE_*/DEPLOY_* toggles",
			},
		},
		Action: runDeploy,
	}
}

func runDeploy(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	only := orchestrator.ParseSectionList(c.String("only"))
	if err := orchestrator.ValidateSectionNames(only); err != nil {
		return err
	}

	client := gcp.NewClient(newRunner(cfg), cfg)
	summary, err := orchestrator.Apply(c.Context, cfg, client, baseDir, only)
	fmt.Fprintln(c.App.Writer, summary.Render())

	if err != nil {
		zap.S().Errorw("deploy finished with failures",
			"run_id", summary.RunID,
			"failed", summary.Failed)
		return cli.Exit(fmt.Sprintf("deploy failed: %v", err), 1)
	}
	return nil
}
