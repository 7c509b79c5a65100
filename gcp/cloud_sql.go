package gcp

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const cloudSQLComponent = "Cloud SQL"

// inspectCloudSQL checks the instance, then the database and user when set.
// Cloud SQL resources are never created here, so every gap is critical.
func (c *Client) inspectCloudSQL(ctx context.Context) []CheckResult {
	sql := c.cfg.CloudSQL
	if sql.InstanceName == "" {
		return []CheckResult{{Component: cloudSQLComponent, Name: "CLOUD_SQL_INSTANCE_NAME", Status: StatusNotConfigured, Severity: SeverityCritical}}
	}

	found, err := c.exists(ctx, "Checking instance "+sql.InstanceName,
		"gcloud", "sql", "instances", "describe", sql.InstanceName, c.projectFlag(), "--format=value(name)")
	if err != nil {
		return []CheckResult{unknownResult(cloudSQLComponent, "instance "+sql.InstanceName, err)}
	}
	if !found {
		return []CheckResult{{Component: cloudSQLComponent, Name: "instance " + sql.InstanceName, Status: StatusMissing, Severity: SeverityCritical}}
	}
	results := []CheckResult{okResult(cloudSQLComponent, "instance "+sql.InstanceName)}

	if sql.DBName != "" {
		name := "database " + sql.DBName
		found, err := c.exists(ctx, "Checking database "+sql.DBName,
			"gcloud", "sql", "databases", "describe", sql.DBName,
			"--instance="+sql.InstanceName, c.projectFlag(), "--format=value(name)")
		switch {
		case err != nil:
			results = append(results, unknownResult(cloudSQLComponent, name, err))
		case !found:
			results = append(results, CheckResult{Component: cloudSQLComponent, Name: name, Status: StatusMissing, Severity: SeverityCritical})
		default:
			results = append(results, okResult(cloudSQLComponent, name))
		}
	}

	if sql.User != "" {
		name := "user " + sql.User
		res, err := c.query(ctx, "Listing users of "+sql.InstanceName,
			"gcloud", "sql", "users", "list",
			"--instance="+sql.InstanceName, c.projectFlag(), "--format=value(name)")
		switch {
		case err != nil:
			results = append(results, unknownResult(cloudSQLComponent, name, err))
		case !slices.Contains(outputLines(res.Stdout), sql.User):
			results = append(results, CheckResult{Component: cloudSQLComponent, Name: name, Status: StatusMissing, Severity: SeverityCritical})
		default:
			results = append(results, okResult(cloudSQLComponent, name))
		}
	}
	return results
}

// EnsureCloudSQL verifies the configured instance, database and user exist.
func (c *Client) EnsureCloudSQL(ctx context.Context) error {
	if !c.cfg.CloudSQL.Enabled {
		zap.S().Debugw("Cloud SQL disabled, skipping")
		return nil
	}
	for _, r := range c.inspectCloudSQL(ctx) {
		if r.Severity == SeverityCritical {
			return errors.WithHint(errors.Newf("Cloud SQL is not ready: %s", r),
				"Cloud SQL instances, databases and users must be created beforehand")
		}
	}
	return nil
}

// CheckCloudSQL reports the Cloud SQL state.
func (c *Client) CheckCloudSQL(ctx context.Context) []CheckResult {
	if !c.cfg.CloudSQL.Enabled {
		return []CheckResult{disabledResult(cloudSQLComponent, "ENABLE_CLOUD_SQL")}
	}
	return c.inspectCloudSQL(ctx)
}
