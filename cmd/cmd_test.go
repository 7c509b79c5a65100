package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(out *bytes.Buffer) func(args ...string) error {
	return func(args ...string) error {
		app := NewApp("deploy-gcp", "test", "none")
		app.Writer = out
		app.ErrWriter = out
		return app.Run(append([]string{"deploy-gcp"}, args...))
	}
}

// setupWorkdir moves into a temp dir holding a minimal .env.infra
func setupWorkdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	infra := "GCP_PROJECT_ID=test-project\n" +
		"GCP_REGION=us-central1\n" +
		"DEPLOY_SERVICE_ACCOUNT_EMAIL=sa@test-project.iam.gserviceaccount.com\n" +
		"ARTIFACT_REGISTRY_REPO=apps\n" +
		"ENABLE_GCS=true\n" +
		"GCS_BUCKET_NAME=assets\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.infra"), []byte(infra), 0o600))

	// registered so the values the env files load are restored afterwards
	for _, k := range []string{"GCP_PROJECT_ID", "GCP_REGION", "DEPLOY_SERVICE_ACCOUNT_EMAIL", "ARTIFACT_REGISTRY_REPO", "ENABLE_GCS", "GCS_BUCKET_NAME", "CLI_PROGRESS_STYLE"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestPlanCommand(t *testing.T) {
	setupWorkdir(t)
	var out bytes.Buffer
	run := newTestApp(&out)

	require.NoError(t, run("plan"))
	assert.Contains(t, out.String(), "- project: test-project")
	assert.Contains(t, out.String(), "- gcs: ENABLED")
	assert.NotContains(t, out.String(), "Raw env")

	out.Reset()
	require.NoError(t, run("plan", "-a"))
	assert.Contains(t, out.String(), "## .env.infra\n- ARTIFACT_REGISTRY_REPO=apps")
	assert.Contains(t, out.String(), "## .env.secrets\n- (missing or empty)")
}

func TestPlanCommand_InvalidConfig(t *testing.T) {
	dir := setupWorkdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CLI_PROGRESS_STYLE=dots\n"), 0o600))

	var out bytes.Buffer
	err := newTestApp(&out)("plan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLI_PROGRESS_STYLE must be one of")
}

func TestDeployCommand_RejectsInvalidSections(t *testing.T) {
	setupWorkdir(t)
	var out bytes.Buffer

	err := newTestApp(&out)("deploy", "--only", "backend,web")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid section(s): web")
	assert.Contains(t, err.Error(), "allowed: backend, etl")
}

func TestChdirMustExist(t *testing.T) {
	t.Chdir(t.TempDir())
	var out bytes.Buffer

	err := newTestApp(&out)("-C", "does-not-exist", "plan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory does not exist: does-not-exist")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "env.secrets.example"), []byte("KEEP=1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("node_modules\n.env.secrets"), 0o644))

	var out bytes.Buffer
	run := newTestApp(&out)
	require.NoError(t, run("init"))

	infra, err := os.ReadFile(filepath.Join(dir, "env.infra.example"))
	require.NoError(t, err)
	assert.Contains(t, string(infra), "GCP_PROJECT_ID=")

	kept, err := os.ReadFile(filepath.Join(dir, "env.secrets.example"))
	require.NoError(t, err)
	assert.Equal(t, "KEEP=1\n", string(kept))
	assert.Contains(t, out.String(), "env.secrets.example already exists, skipped")

	gitignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "node_modules\n.env.secrets\n\n"+gitignoreHeader+"\n.env.infra\n.env.services\n", string(gitignore))

	// A second run changes nothing.
	require.NoError(t, run("init"))
	again, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, string(gitignore), string(again))
}

func TestUpdateGitignore_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".gitignore")
	var out bytes.Buffer

	require.NoError(t, updateGitignore(&out, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, gitignoreHeader+"\n.env.infra\n.env.secrets\n.env.services\n", string(data))
}
