package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cnosuke/deploy-gcp/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownEnv = []string{
	"GCP_PROJECT_ID", "GCP_REGION", "DEPLOY_SERVICE_ACCOUNT_EMAIL", "ARTIFACT_REGISTRY_REPO",
	"DEPLOY_BACKEND", "BACKEND_IMAGE_NAME", "BACKEND_SERVICE_NAME", "BACKEND_SOURCE_DIR",
	"DEPLOY_FRONTEND", "FRONTEND_IMAGE_NAME", "FRONTEND_SOURCE_DIR", "FRONTEND_BUILD_COMMAND",
	"DEPLOY_ETL_JOB", "ETL_JOB_NAME",
	"ENABLE_BIGQUERY", "BIGQUERY_PROJECT_ID", "BIGQUERY_DATASET_ID",
	"ENABLE_CLOUD_SQL", "CLOUD_SQL_INSTANCE_NAME", "CLOUD_SQL_DB_NAME", "CLOUD_SQL_USER",
	"ENABLE_GCS", "GCS_BUCKET_NAME", "GCS_PREFIX",
	"ENABLE_FIREBASE", "FIREBASE_PROJECT_ID", "FIREBASE_HOSTING_SITE", "FIREBASE_BUILD_DIR",
	"ENABLE_SECRET_MANAGER", "CONFIGURE_SECRETS", "SECRET_PREFIX",
	"STREAM_SUBPROCESS_OUTPUT", "COMMAND_TIMEOUT_SECONDS", "CLI_SHOW_PROGRESS",
	"CLI_PROGRESS_IDLE_SECONDS", "CLI_PROGRESS_STYLE", "CLI_PROGRESS_INTERVAL_SECONDS",
}

// isolateEnv blanks every variable the config reads; configor treats empty as unset.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range knownEnv {
		t.Setenv(k, "")
	}
}

func setBaseEnv(t *testing.T) {
	t.Helper()
	isolateEnv(t)
	t.Setenv("GCP_PROJECT_ID", "test-project")
	t.Setenv("GCP_REGION", "us-central1")
	t.Setenv("DEPLOY_SERVICE_ACCOUNT_EMAIL", "sa@test-project.iam.gserviceaccount.com")
	t.Setenv("ARTIFACT_REGISTRY_REPO", "apps")
	t.Setenv("BACKEND_SERVICE_NAME", "backend")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "test-project", cfg.GCP.ProjectID)
	assert.Equal(t, "us-central1", cfg.GCP.Region)
	assert.True(t, cfg.Backend.Deploy)
	assert.True(t, cfg.Frontend.Deploy)
	assert.False(t, cfg.ETL.Deploy)
	assert.Equal(t, "etl", cfg.ETL.JobName)
	assert.Equal(t, ".", cfg.Backend.SourceDir)
	assert.True(t, cfg.Secrets.Enabled)
	assert.True(t, cfg.SecretsActive())
	assert.False(t, cfg.FirebaseActive())
	assert.Equal(t, "dist", cfg.Firebase.BuildDir)
	assert.Equal(t, "test-project", cfg.Firebase.ProjectID)

	assert.True(t, cfg.Exec.StreamOutput)
	assert.Equal(t, 900*time.Second, cfg.CommandTimeout())
	assert.Equal(t, executor.ProgressSettings{
		ShowProgress:  true,
		IdleThreshold: 2 * time.Second,
		Style:         executor.StyleBraille,
		Interval:      120 * time.Millisecond,
	}, cfg.ProgressSettings())
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("GCP_PROJECT_ID", "")
	t.Setenv("ARTIFACT_REGISTRY_REPO", "")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required environment variables: ARTIFACT_REGISTRY_REPO, GCP_PROJECT_ID")
}

func TestLoadConfig_BigQueryRequiresDataset(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENABLE_BIGQUERY", "true")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BIGQUERY_DATASET_ID")
}

func TestLoadConfig_BigQueryProjectDefaultsToGCPProject(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENABLE_BIGQUERY", "true")
	t.Setenv("BIGQUERY_DATASET_ID", "analytics")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "test-project", cfg.BigQuery.ProjectID)
	assert.Equal(t, "analytics", cfg.BigQuery.DatasetID)
}

func TestLoadConfig_ToggleRequirements(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ENABLE_GCS", "true")
	t.Setenv("ENABLE_CLOUD_SQL", "true")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLOUD_SQL_INSTANCE_NAME, GCS_BUCKET_NAME")
}

func TestLoadConfig_InvalidProgressSettings(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CLI_PROGRESS_STYLE", "dots")
	t.Setenv("CLI_PROGRESS_INTERVAL_SECONDS", "0")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLI_PROGRESS_STYLE must be one of: braille, ascii")
	assert.Contains(t, err.Error(), "CLI_PROGRESS_INTERVAL_SECONDS must be greater than 0")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CLI_PROGRESS_STYLE", "ascii")

	path := filepath.Join(t.TempDir(), "deploy.yml")
	content := `
etl:
  deploy: true
  job_name: nightly
exec:
  style: braille
  idle_seconds: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.ETL.Deploy)
	assert.Equal(t, "nightly", cfg.ETL.JobName)
	assert.Equal(t, "ascii", cfg.Exec.Style)
	assert.Equal(t, 500*time.Millisecond, cfg.ProgressSettings().IdleThreshold)
}

func TestLoadConfig_MissingFileIsIgnored(t *testing.T) {
	setBaseEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.NoError(t, err)
}

func TestLoadEnvFiles_LaterFilesOverride(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DEPLOY_GCP_TEST_ONLY_IN_ENV", "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GCP_REGION=asia-northeast1\nDEPLOY_GCP_TEST_ONLY_IN_ENV=yes\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.infra"), []byte("GCP_REGION=us-central1\n"), 0o600))

	loaded, err := LoadEnvFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, ".env"), filepath.Join(dir, ".env.infra")}, loaded)
	assert.Equal(t, "us-central1", os.Getenv("GCP_REGION"))
	assert.Equal(t, "yes", os.Getenv("DEPLOY_GCP_TEST_ONLY_IN_ENV"))
}

func TestReadEnvFile(t *testing.T) {
	dir := t.TempDir()

	values, err := ReadEnvFile(filepath.Join(dir, ".env.services"))
	require.NoError(t, err)
	assert.Empty(t, values)

	path := filepath.Join(dir, ".env.secrets")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nAPI_KEY=abc\nDB_PASSWORD=s3cret\n"), 0o600))
	values, err = ReadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"API_KEY": "abc", "DB_PASSWORD": "s3cret"}, values)
}

func TestRenderEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.infra"), []byte("GCP_REGION=us-central1\nGCP_PROJECT_ID=p\n"), 0o600))

	out, err := RenderEnvFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, "## .env.infra\n- GCP_PROJECT_ID=p\n- GCP_REGION=us-central1\n\n"+
		"## .env.secrets\n- (missing or empty)\n\n"+
		"## .env.services\n- (missing or empty)", out)
}

func TestLoadConfig_BoolToggles(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"no", false},
		{"off", false},
		{"n", false},
		{"false", false},
		{"0", false},
		{"yes", true},
		{"y", true},
		{"YES", true},
		{"true", true},
		{"1", true},
		{"on", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("DEPLOY_BACKEND", tt.raw)
			t.Setenv("STREAM_SUBPROCESS_OUTPUT", tt.raw)
			t.Setenv("ENABLE_GCS", tt.raw)
			t.Setenv("GCS_BUCKET_NAME", "assets")

			cfg, err := LoadConfig("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Backend.Deploy)
			assert.Equal(t, tt.want, cfg.Exec.StreamOutput)
			assert.Equal(t, tt.want, cfg.GCS.Enabled)
		})
	}
}

func TestLoadConfig_ShowProgressFollowsRunner(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CLI_SHOW_PROGRESS", "on")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.Exec.ShowProgress)

	t.Setenv("CLI_SHOW_PROGRESS", "off")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.False(t, cfg.Exec.ShowProgress)
}
