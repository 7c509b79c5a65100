package gcp

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var baseRoles = []string{
	"roles/artifactregistry.writer",
	"roles/cloudbuild.builds.editor",
	"roles/iam.serviceAccountUser",
	"roles/run.admin",
	"roles/secretmanager.admin",
}

// IAMRoles lists the roles granted to the deploy service account.
func (c *Client) IAMRoles() []string {
	roles := append([]string(nil), baseRoles...)
	if c.cfg.BigQuery.Enabled {
		roles = append(roles, "roles/bigquery.admin")
	}
	if c.cfg.CloudSQL.Enabled {
		roles = append(roles, "roles/cloudsql.client")
	}
	if c.cfg.GCS.Enabled {
		roles = append(roles, "roles/storage.admin")
	}
	if c.cfg.Firebase.Enabled {
		roles = append(roles, "roles/firebasehosting.admin")
	}
	return roles
}

// EnsureDeployServiceAccount creates the deploy service account when it does not exist.
func (c *Client) EnsureDeployServiceAccount(ctx context.Context) error {
	email := c.cfg.GCP.DeployServiceAccount
	found, err := c.exists(ctx, "Checking service account "+email,
		"gcloud", "iam", "service-accounts", "describe", email, c.projectFlag(), "--format=value(email)")
	if err != nil {
		return errors.Wrap(err, "failed to describe service account")
	}
	if found {
		zap.S().Debugw("service account exists", "email", email)
		return nil
	}

	accountID, _, _ := strings.Cut(email, "@")
	zap.S().Infow("creating service account", "email", email)
	if err := c.mutate(ctx, "", "Creating service account "+accountID,
		"gcloud", "iam", "service-accounts", "create", accountID,
		c.projectFlag(), "--display-name=Deploy service account"); err != nil {
		return errors.Wrapf(err, "failed to create service account %s", email)
	}
	return nil
}

// EnsureIAMRoles binds every role from IAMRoles to the deploy service account.
// Bindings are idempotent on the gcloud side.
func (c *Client) EnsureIAMRoles(ctx context.Context) error {
	member := "serviceAccount:" + c.cfg.GCP.DeployServiceAccount
	for _, role := range c.IAMRoles() {
		zap.S().Debugw("binding role",
			"member", member,
			"role", role)
		_, err := c.query(ctx, "Granting "+role,
			"gcloud", "projects", "add-iam-policy-binding", c.project(),
			"--member="+member, "--role="+role, "--condition=None", "--quiet")
		if err != nil {
			return errors.Wrapf(err, "failed to grant %s", role)
		}
	}
	return nil
}
