package gcp

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

func (c *Client) describeRepository(ctx context.Context) (bool, error) {
	repo := c.cfg.GCP.ArtifactRegistryRepo
	return c.exists(ctx, "Checking repository "+repo,
		"gcloud", "artifacts", "repositories", "describe", repo,
		"--location="+c.cfg.GCP.Region, c.projectFlag(), "--format=value(name)")
}

// EnsureRepository creates the Docker repository when it does not exist.
func (c *Client) EnsureRepository(ctx context.Context) error {
	repo := c.cfg.GCP.ArtifactRegistryRepo
	found, err := c.describeRepository(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to describe repository")
	}
	if found {
		return nil
	}

	zap.S().Infow("creating repository",
		"repository", repo,
		"location", c.cfg.GCP.Region)
	if err := c.mutate(ctx, "", "Creating repository "+repo,
		"gcloud", "artifacts", "repositories", "create", repo,
		"--repository-format=docker", "--location="+c.cfg.GCP.Region, c.projectFlag()); err != nil {
		return errors.Wrapf(err, "failed to create repository %s", repo)
	}
	return nil
}

// CheckRepository reports whether the repository exists. A missing one is a
// warning since deploy creates it.
func (c *Client) CheckRepository(ctx context.Context) CheckResult {
	const component = "Artifact Registry"
	repo := c.cfg.GCP.ArtifactRegistryRepo

	found, err := c.describeRepository(ctx)
	switch {
	case err != nil:
		return unknownResult(component, repo, err)
	case !found:
		return CheckResult{Component: component, Name: repo, Status: StatusMissing, Severity: SeverityWarning}
	default:
		return okResult(component, repo)
	}
}

// ImageURL is the registry location for the named image, tagged latest.
func (c *Client) ImageURL(name string) string {
	return fmt.Sprintf("%s-docker.pkg.dev/%s/%s/%s:latest",
		c.cfg.GCP.Region, c.project(), c.cfg.GCP.ArtifactRegistryRepo, name)
}

// BuildAndPushImage builds sourceDir with Cloud Build and pushes the result,
// returning the image URL.
func (c *Client) BuildAndPushImage(ctx context.Context, name, sourceDir string) (string, error) {
	url := c.ImageURL(name)
	zap.S().Infow("building image",
		"image", url,
		"source_dir", sourceDir)

	if err := c.mutate(ctx, sourceDir, "Building "+name,
		"gcloud", "builds", "submit", ".", "--tag="+url, c.projectFlag()); err != nil {
		return "", errors.Wrapf(err, "failed to build image %s", url)
	}
	return url, nil
}
