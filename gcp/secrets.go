package gcp

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/cnosuke/deploy-gcp/config"
	"github.com/cockroachdb/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SecretsFile holds the local secret values uploaded to Secret Manager.
const SecretsFile = ".env.secrets"

const secretsComponent = "Secret Manager"

// LoadLocalSecrets reads SecretsFile from baseDir. A missing file yields no secrets.
func LoadLocalSecrets(baseDir string) (map[string]string, error) {
	path := filepath.Join(baseDir, SecretsFile)
	secrets, err := config.ReadEnvFile(path)
	if err != nil {
		return nil, err
	}
	if len(secrets) == 0 {
		zap.S().Infow("no local secrets found", "path", path)
	}
	return secrets, nil
}

// SecretName applies SECRET_PREFIX to a local key.
func (c *Client) SecretName(key string) string {
	return c.cfg.Secrets.Prefix + key
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Client) describeSecret(ctx context.Context, name string) (bool, error) {
	return c.exists(ctx, "Checking secret "+name,
		"gcloud", "secrets", "describe", name, c.projectFlag(), "--format=value(name)")
}

// EnsureSecrets uploads every local secret as a new version, creating the
// secret first when needed. It returns the names that were written; failures
// of individual secrets are combined.
func (c *Client) EnsureSecrets(ctx context.Context, baseDir string) ([]string, error) {
	if !c.cfg.SecretsActive() {
		zap.S().Debugw("Secret Manager disabled, skipping")
		return nil, nil
	}

	secrets, err := LoadLocalSecrets(baseDir)
	if err != nil {
		return nil, err
	}

	var (
		written []string
		errs    error
	)
	for _, key := range sortedKeys(secrets) {
		name := c.SecretName(key)
		if err := c.putSecret(ctx, name, secrets[key]); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "secret %s", name))
			continue
		}
		written = append(written, name)
	}
	return written, errs
}

func (c *Client) putSecret(ctx context.Context, name, value string) error {
	found, err := c.describeSecret(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		zap.S().Infow("creating secret", "name", name)
		if _, err := c.query(ctx, "Creating secret "+name,
			"gcloud", "secrets", "create", name, c.projectFlag(), "--replication-policy=automatic"); err != nil {
			return err
		}
	}

	// The value goes through a private file so it never shows up in argv.
	f, err := os.CreateTemp("", "deploy-gcp-secret-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(f.Name())
	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to restrict temp file")
	}
	if _, err := f.WriteString(value); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}

	zap.S().Infow("adding secret version", "name", name)
	_, err = c.query(ctx, "Uploading secret "+name,
		"gcloud", "secrets", "versions", "add", name, c.projectFlag(), "--data-file="+f.Name())
	return err
}

// CheckSecrets reports which local secrets already exist in Secret Manager.
// Missing ones are warnings since deploy creates them.
func (c *Client) CheckSecrets(ctx context.Context, baseDir string) []CheckResult {
	if !c.cfg.SecretsActive() {
		return []CheckResult{disabledResult(secretsComponent, "ENABLE_SECRET_MANAGER/CONFIGURE_SECRETS")}
	}

	secrets, err := LoadLocalSecrets(baseDir)
	if err != nil {
		return []CheckResult{unknownResult(secretsComponent, SecretsFile, err)}
	}
	if len(secrets) == 0 {
		return []CheckResult{{
			Component: secretsComponent,
			Name:      SecretsFile,
			Status:    "no local secrets",
			Severity:  SeverityInfo,
		}}
	}

	var results []CheckResult
	for _, key := range sortedKeys(secrets) {
		name := c.SecretName(key)
		found, err := c.describeSecret(ctx, name)
		switch {
		case err != nil:
			results = append(results, unknownResult(secretsComponent, name, err))
		case !found:
			results = append(results, CheckResult{Component: secretsComponent, Name: name, Status: StatusMissing, Severity: SeverityWarning})
		default:
			results = append(results, okResult(secretsComponent, name))
		}
	}
	return results
}
