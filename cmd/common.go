package cmd

import (
	"github.com/cnosuke/deploy-gcp/config"
	"github.com/cnosuke/deploy-gcp/executor"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// baseDir is where env files and relative source dirs resolve. setup has
// already changed into --chdir.
const baseDir = "."

// loadConfig reads the env files, then the optional YAML file and the environment
func loadConfig(c *cli.Context) (*config.Config, error) {
	loaded, err := config.LoadEnvFiles(baseDir)
	if err != nil {
		return nil, err
	}
	zap.S().Debugw("loaded env files", "files", loaded)

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

// newRunner creates a runner whose process-wide progress defaults come from cfg
func newRunner(cfg *config.Config, opts ...executor.Option) *executor.Runner {
	return executor.NewRunner(executor.NewSettingsStore(cfg.ProgressSettings()), opts...)
}
