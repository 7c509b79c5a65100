package gcp

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

func (c *Client) bucketURL() string {
	return "gs://" + c.cfg.GCS.BucketName
}

func (c *Client) describeBucket(ctx context.Context) (bool, error) {
	return c.exists(ctx, "Checking bucket "+c.bucketURL(),
		"gcloud", "storage", "buckets", "describe", c.bucketURL(), c.projectFlag(), "--format=value(name)")
}

// EnsureGCSBucket creates the bucket when GCS is enabled and it does not exist.
func (c *Client) EnsureGCSBucket(ctx context.Context) error {
	if !c.cfg.GCS.Enabled {
		zap.S().Debugw("GCS disabled, skipping")
		return nil
	}
	if c.cfg.GCS.BucketName == "" {
		return errors.New("GCS_BUCKET_NAME is not set")
	}

	found, err := c.describeBucket(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to describe bucket")
	}
	if found {
		zap.S().Debugw("bucket exists",
			"bucket", c.bucketURL(),
			"prefix", c.cfg.GCS.Prefix)
		return nil
	}

	zap.S().Infow("creating bucket",
		"bucket", c.bucketURL(),
		"location", c.cfg.GCP.Region)
	if err := c.mutate(ctx, "", "Creating bucket "+c.bucketURL(),
		"gcloud", "storage", "buckets", "create", c.bucketURL(),
		c.projectFlag(), "--location="+c.cfg.GCP.Region, "--uniform-bucket-level-access"); err != nil {
		return errors.Wrapf(err, "failed to create bucket %s", c.bucketURL())
	}
	return nil
}

// CheckGCSBucket reports the bucket state.
func (c *Client) CheckGCSBucket(ctx context.Context) CheckResult {
	const component = "GCS"
	if !c.cfg.GCS.Enabled {
		return disabledResult(component, "ENABLE_GCS")
	}
	if c.cfg.GCS.BucketName == "" {
		return CheckResult{Component: component, Name: "GCS_BUCKET_NAME", Status: StatusNotConfigured, Severity: SeverityCritical}
	}

	found, err := c.describeBucket(ctx)
	switch {
	case err != nil:
		return unknownResult(component, c.bucketURL(), err)
	case !found:
		return CheckResult{Component: component, Name: c.bucketURL(), Status: StatusMissing, Severity: SeverityWarning}
	default:
		return okResult(component, c.bucketURL())
	}
}
