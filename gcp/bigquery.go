package gcp

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

func (c *Client) datasetRef() string {
	return c.cfg.BigQuery.ProjectID + ":" + c.cfg.BigQuery.DatasetID
}

func (c *Client) describeDataset(ctx context.Context) (bool, error) {
	return c.exists(ctx, "Checking dataset "+c.datasetRef(),
		"bq", "--project_id="+c.cfg.BigQuery.ProjectID, "show", "--format=none", c.datasetRef())
}

// EnsureBigQueryResources creates the dataset when BigQuery is enabled and the
// dataset does not exist.
func (c *Client) EnsureBigQueryResources(ctx context.Context) error {
	if !c.cfg.BigQuery.Enabled {
		zap.S().Debugw("BigQuery disabled, skipping")
		return nil
	}
	if c.cfg.BigQuery.DatasetID == "" {
		return errors.New("BIGQUERY_DATASET_ID is not set")
	}

	found, err := c.describeDataset(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to describe dataset")
	}
	if found {
		return nil
	}

	zap.S().Infow("creating dataset",
		"dataset", c.datasetRef(),
		"location", c.cfg.GCP.Region)
	if err := c.mutate(ctx, "", "Creating dataset "+c.datasetRef(),
		"bq", "--project_id="+c.cfg.BigQuery.ProjectID, "--location="+c.cfg.GCP.Region,
		"mk", "--dataset", c.datasetRef()); err != nil {
		return errors.Wrapf(err, "failed to create dataset %s", c.datasetRef())
	}
	return nil
}

// CheckBigQueryResources reports the dataset state.
func (c *Client) CheckBigQueryResources(ctx context.Context) CheckResult {
	const component = "BigQuery"
	if !c.cfg.BigQuery.Enabled {
		return disabledResult(component, "ENABLE_BIGQUERY")
	}
	if c.cfg.BigQuery.DatasetID == "" {
		return CheckResult{Component: component, Name: "BIGQUERY_DATASET_ID", Status: StatusNotConfigured, Severity: SeverityCritical}
	}

	found, err := c.describeDataset(ctx)
	switch {
	case err != nil:
		return unknownResult(component, c.datasetRef(), err)
	case !found:
		return CheckResult{Component: component, Name: c.datasetRef(), Status: StatusMissing, Severity: SeverityWarning}
	default:
		return okResult(component, c.datasetRef())
	}
}
