package gcp

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

func (c *Client) frontendDir() string {
	if c.cfg.Frontend.SourceDir == "" {
		return "."
	}
	return c.cfg.Frontend.SourceDir
}

// BuildFrontend runs FRONTEND_BUILD_COMMAND through sh in the frontend source
// directory. Without a build command it does nothing.
func (c *Client) BuildFrontend(ctx context.Context) error {
	command := c.cfg.Frontend.BuildCommand
	if command == "" {
		zap.S().Infow("no frontend build command configured, skipping build")
		return nil
	}

	zap.S().Infow("building frontend",
		"command", command,
		"source_dir", c.frontendDir())
	if err := c.mutate(ctx, c.frontendDir(), "Building frontend", "sh", "-c", command); err != nil {
		return errors.Wrap(err, "frontend build failed")
	}
	return nil
}

// HostingTarget is the --only value for firebase deploy.
func (c *Client) HostingTarget() string {
	if site := c.cfg.Firebase.HostingSite; site != "" {
		return "hosting:" + site
	}
	return "hosting"
}

// DeployFrontend publishes the built frontend to Firebase Hosting.
func (c *Client) DeployFrontend(ctx context.Context) error {
	if !c.cfg.FirebaseActive() {
		zap.S().Debugw("Firebase deploy disabled, skipping")
		return nil
	}

	buildDir := filepath.Join(c.frontendDir(), c.cfg.Firebase.BuildDir)
	if stat, err := os.Stat(buildDir); err != nil || !stat.IsDir() {
		return errors.WithHint(
			errors.Newf("build output not found: %s", buildDir),
			"run the frontend build or set FIREBASE_BUILD_DIR")
	}

	zap.S().Infow("deploying to Firebase Hosting",
		"project", c.cfg.Firebase.ProjectID,
		"target", c.HostingTarget(),
		"build_dir", buildDir)
	if err := c.mutate(ctx, c.frontendDir(), "Deploying to Firebase Hosting",
		"firebase", "deploy", "--only", c.HostingTarget(),
		"--project", c.cfg.Firebase.ProjectID, "--non-interactive"); err != nil {
		return errors.Wrap(err, "firebase deploy failed")
	}
	return nil
}
