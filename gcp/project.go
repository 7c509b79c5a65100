package gcp

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var (
	baseAPIs     = []string{"run.googleapis.com", "artifactregistry.googleapis.com", "cloudbuild.googleapis.com", "secretmanager.googleapis.com"}
	bigQueryAPIs = []string{"bigquery.googleapis.com"}
	cloudSQLAPIs = []string{"sqladmin.googleapis.com"}
	storageAPIs  = []string{"storage.googleapis.com"}
	firebaseAPIs = []string{"firebase.googleapis.com", "firebasehosting.googleapis.com"}
)

// RequiredAPIs returns the sorted set of service APIs the configuration needs.
func (c *Client) RequiredAPIs() []string {
	apis := append([]string(nil), baseAPIs...)
	if c.cfg.BigQuery.Enabled {
		apis = append(apis, bigQueryAPIs...)
	}
	if c.cfg.CloudSQL.Enabled {
		apis = append(apis, cloudSQLAPIs...)
	}
	if c.cfg.GCS.Enabled {
		apis = append(apis, storageAPIs...)
	}
	if c.cfg.Firebase.Enabled {
		apis = append(apis, firebaseAPIs...)
	}

	seen := make(map[string]struct{}, len(apis))
	unique := apis[:0]
	for _, api := range apis {
		if _, ok := seen[api]; ok {
			continue
		}
		seen[api] = struct{}{}
		unique = append(unique, api)
	}
	sort.Strings(unique)
	return unique
}

func (c *Client) describeProject(ctx context.Context) (bool, error) {
	return c.exists(ctx, "Checking project "+c.project(),
		"gcloud", "projects", "describe", c.project(), "--format=value(projectId)")
}

// EnsureProjectAndAPIs verifies the project is reachable and enables every
// required API. Projects are never created.
func (c *Client) EnsureProjectAndAPIs(ctx context.Context) error {
	found, err := c.describeProject(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to describe project")
	}
	if !found {
		return errors.WithHint(
			errors.Newf("project not found or not accessible: %s", c.project()),
			"check GCP_PROJECT_ID and the active gcloud account")
	}

	apis := c.RequiredAPIs()
	zap.S().Infow("enabling APIs",
		"project", c.project(),
		"apis", apis)

	args := append([]string{"gcloud", "services", "enable"}, apis...)
	args = append(args, c.projectFlag())
	if err := c.mutate(ctx, "", "Enabling APIs", args...); err != nil {
		return errors.Wrap(err, "failed to enable APIs")
	}
	return nil
}

// CheckProjectAndAPIs reports whether the project exists and which required
// APIs are still disabled.
func (c *Client) CheckProjectAndAPIs(ctx context.Context) []CheckResult {
	const component = "Project"

	found, err := c.describeProject(ctx)
	if err != nil {
		return []CheckResult{unknownResult(component, c.project(), err)}
	}
	if !found {
		return []CheckResult{{
			Component: component,
			Name:      c.project(),
			Status:    StatusMissing,
			Severity:  SeverityCritical,
		}}
	}
	results := []CheckResult{okResult(component, c.project())}

	res, err := c.query(ctx, "Listing enabled APIs",
		"gcloud", "services", "list", "--enabled", c.projectFlag(), "--format=value(config.name)")
	if err != nil {
		return append(results, unknownResult("API", "enabled services", err))
	}
	enabled := make(map[string]bool)
	for _, name := range outputLines(res.Stdout) {
		enabled[name] = true
	}

	for _, api := range c.RequiredAPIs() {
		if enabled[api] {
			results = append(results, okResult("API", api))
			continue
		}
		results = append(results, CheckResult{
			Component: "API",
			Name:      api,
			Status:    StatusDisabled,
			Severity:  SeverityWarning,
		})
	}
	return results
}
