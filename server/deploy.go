package server

import (
	"context"
	"sync"

	"github.com/cnosuke/deploy-gcp/config"
	"github.com/cnosuke/deploy-gcp/gcp"
	"github.com/cnosuke/deploy-gcp/orchestrator"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// DeployServer - Serves plan, check and apply for one configuration
type DeployServer struct {
	cfg     *config.Config
	client  *gcp.Client
	baseDir string

	// applyMu allows one apply at a time
	applyMu sync.Mutex
}

// NewDeployServer - Create a new deploy server
func NewDeployServer(cfg *config.Config, client *gcp.Client, baseDir string) *DeployServer {
	zap.S().Infow("creating new deploy server",
		"project", cfg.GCP.ProjectID,
		"base_dir", baseDir)

	return &DeployServer{
		cfg:     cfg,
		client:  client,
		baseDir: baseDir,
	}
}

// Plan - Render the deploy plan, optionally followed by the raw env files
func (s *DeployServer) Plan(all bool) (string, error) {
	report := orchestrator.Plan(s.cfg)
	if !all {
		return report, nil
	}
	dump, err := config.RenderEnvFiles(s.baseDir)
	if err != nil {
		return "", err
	}
	return report + "\n\n## Raw env from files\n" + dump, nil
}

// Check - Run the pre-deploy check
func (s *DeployServer) Check(ctx context.Context, showAll bool) (string, bool) {
	return orchestrator.Check(ctx, s.cfg, s.client, s.baseDir, showAll)
}

// Apply - Deploy the enabled sections, restricted to only when non-empty
func (s *DeployServer) Apply(ctx context.Context, only []string) (orchestrator.Summary, error) {
	if err := orchestrator.ValidateSectionNames(only); err != nil {
		return orchestrator.Summary{}, err
	}
	if !s.applyMu.TryLock() {
		return orchestrator.Summary{}, errors.New("another deploy is already running")
	}
	defer s.applyMu.Unlock()

	return orchestrator.Apply(ctx, s.cfg, s.client, s.baseDir, only)
}
