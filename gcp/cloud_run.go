package gcp

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// cloudSQLConnection is the instance connection name Cloud Run attaches to.
func (c *Client) cloudSQLConnection() string {
	return c.project() + ":" + c.cfg.GCP.Region + ":" + c.cfg.CloudSQL.InstanceName
}

// DeployBackendService deploys imageURL as the backend Cloud Run service.
func (c *Client) DeployBackendService(ctx context.Context, imageURL string) error {
	service := c.cfg.Backend.ServiceName
	args := []string{
		"gcloud", "run", "deploy", service,
		"--image=" + imageURL,
		"--region=" + c.cfg.GCP.Region,
		c.projectFlag(),
		"--service-account=" + c.cfg.GCP.DeployServiceAccount,
		"--platform=managed",
		"--quiet",
	}
	if c.cfg.CloudSQL.Enabled {
		args = append(args, "--add-cloudsql-instances="+c.cloudSQLConnection())
	}

	zap.S().Infow("deploying Cloud Run service",
		"service", service,
		"image", imageURL)
	if err := c.mutate(ctx, "", "Deploying service "+service, args...); err != nil {
		return errors.Wrapf(err, "failed to deploy service %s", service)
	}
	return nil
}

// DeployETLJob deploys imageURL as the ETL Cloud Run job.
func (c *Client) DeployETLJob(ctx context.Context, imageURL string) error {
	job := c.cfg.ETL.JobName
	args := []string{
		"gcloud", "run", "jobs", "deploy", job,
		"--image=" + imageURL,
		"--region=" + c.cfg.GCP.Region,
		c.projectFlag(),
		"--service-account=" + c.cfg.GCP.DeployServiceAccount,
		"--quiet",
	}
	if c.cfg.CloudSQL.Enabled {
		args = append(args, "--set-cloudsql-instances="+c.cloudSQLConnection())
	}

	zap.S().Infow("deploying Cloud Run job",
		"job", job,
		"image", imageURL)
	if err := c.mutate(ctx, "", "Deploying job "+job, args...); err != nil {
		return errors.Wrapf(err, "failed to deploy job %s", job)
	}
	return nil
}
