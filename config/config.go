package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/cnosuke/deploy-gcp/executor"
	"github.com/cockroachdb/errors"
	"github.com/jinzhu/configor"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles are loaded in order; later files override earlier ones.
var DefaultEnvFiles = []string{".env", ".env.infra", ".env.services", ".env.secrets"}

// DumpEnvFiles are shown by `plan --all`.
var DumpEnvFiles = []string{".env.infra", ".env.secrets", ".env.services"}

// Config - Application configuration
type Config struct {
	GCP struct {
		ProjectID            string `yaml:"project_id" env:"GCP_PROJECT_ID" validate:"required"`
		Region               string `yaml:"region" env:"GCP_REGION" validate:"required"`
		DeployServiceAccount string `yaml:"deploy_service_account" env:"DEPLOY_SERVICE_ACCOUNT_EMAIL" validate:"required"`
		ArtifactRegistryRepo string `yaml:"artifact_registry_repo" env:"ARTIFACT_REGISTRY_REPO" validate:"required"`
	} `yaml:"gcp"`

	Backend struct {
		Deploy      bool   `yaml:"deploy" env:"DEPLOY_BACKEND" default:"true"`
		ImageName   string `yaml:"image_name" env:"BACKEND_IMAGE_NAME"`
		ServiceName string `yaml:"service_name" env:"BACKEND_SERVICE_NAME" default:"backend"`
		SourceDir   string `yaml:"source_dir" env:"BACKEND_SOURCE_DIR" default:"."`
	} `yaml:"backend"`

	Frontend struct {
		Deploy       bool   `yaml:"deploy" env:"DEPLOY_FRONTEND" default:"true"`
		ImageName    string `yaml:"image_name" env:"FRONTEND_IMAGE_NAME"`
		SourceDir    string `yaml:"source_dir" env:"FRONTEND_SOURCE_DIR"`
		BuildCommand string `yaml:"build_command" env:"FRONTEND_BUILD_COMMAND"`
	} `yaml:"frontend"`

	ETL struct {
		Deploy  bool   `yaml:"deploy" env:"DEPLOY_ETL_JOB"`
		JobName string `yaml:"job_name" env:"ETL_JOB_NAME" default:"etl"`
	} `yaml:"etl"`

	BigQuery struct {
		Enabled   bool   `yaml:"enabled" env:"ENABLE_BIGQUERY"`
		ProjectID string `yaml:"project_id" env:"BIGQUERY_PROJECT_ID"`
		DatasetID string `yaml:"dataset_id" env:"BIGQUERY_DATASET_ID" validate:"required_if=Enabled true"`
	} `yaml:"bigquery"`

	CloudSQL struct {
		Enabled      bool   `yaml:"enabled" env:"ENABLE_CLOUD_SQL"`
		InstanceName string `yaml:"instance_name" env:"CLOUD_SQL_INSTANCE_NAME" validate:"required_if=Enabled true"`
		DBName       string `yaml:"db_name" env:"CLOUD_SQL_DB_NAME"`
		User         string `yaml:"user" env:"CLOUD_SQL_USER"`
	} `yaml:"cloud_sql"`

	GCS struct {
		Enabled    bool   `yaml:"enabled" env:"ENABLE_GCS"`
		BucketName string `yaml:"bucket_name" env:"GCS_BUCKET_NAME" validate:"required_if=Enabled true"`
		Prefix     string `yaml:"prefix" env:"GCS_PREFIX"`
	} `yaml:"gcs"`

	Firebase struct {
		Enabled     bool   `yaml:"enabled" env:"ENABLE_FIREBASE"`
		ProjectID   string `yaml:"project_id" env:"FIREBASE_PROJECT_ID"`
		HostingSite string `yaml:"hosting_site" env:"FIREBASE_HOSTING_SITE"`
		BuildDir    string `yaml:"build_dir" env:"FIREBASE_BUILD_DIR" default:"dist"`
	} `yaml:"firebase"`

	Secrets struct {
		Enabled   bool   `yaml:"enabled" env:"ENABLE_SECRET_MANAGER" default:"true"`
		Configure bool   `yaml:"configure" env:"CONFIGURE_SECRETS" default:"true"`
		Prefix    string `yaml:"prefix" env:"SECRET_PREFIX"`
	} `yaml:"secrets"`

	// Exec configures how external tools are run
	Exec struct {
		StreamOutput    bool    `yaml:"stream_output" env:"STREAM_SUBPROCESS_OUTPUT" default:"true"`
		TimeoutSeconds  float64 `yaml:"timeout_seconds" env:"COMMAND_TIMEOUT_SECONDS" default:"900" validate:"gte=0"`
		ShowProgress    bool    `yaml:"show_progress" env:"CLI_SHOW_PROGRESS" default:"true"`
		IdleSeconds     float64 `yaml:"idle_seconds" env:"CLI_PROGRESS_IDLE_SECONDS" default:"2" validate:"gte=0"`
		Style           string  `yaml:"style" env:"CLI_PROGRESS_STYLE" default:"braille" validate:"oneof=braille ascii"`
		IntervalSeconds float64 `yaml:"interval_seconds" env:"CLI_PROGRESS_INTERVAL_SECONDS" default:"0.12" validate:"gt=0"`
	} `yaml:"exec"`
}

// LoadEnvFiles loads the given env files from baseDir into the process
// environment. Missing files are skipped; later files override earlier ones.
func LoadEnvFiles(baseDir string, files ...string) ([]string, error) {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	var loaded []string
	for _, name := range files {
		path := filepath.Join(baseDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return loaded, errors.Wrapf(err, "failed to load env file %s", path)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// ReadEnvFile parses an env file without touching the process environment.
// A missing file yields an empty map.
func ReadEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrapf(err, "failed to read env file %s", path)
	}
	return values, nil
}

// RenderEnvFiles lists the raw key/value pairs of DumpEnvFiles under baseDir,
// one markdown section per file.
func RenderEnvFiles(baseDir string) (string, error) {
	var b strings.Builder
	for _, name := range DumpEnvFiles {
		fmt.Fprintf(&b, "## %s\n", name)
		values, err := ReadEnvFile(filepath.Join(baseDir, name))
		if err != nil {
			return "", err
		}
		if len(values) == 0 {
			b.WriteString("- (missing or empty)\n\n")
			continue
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s=%s\n", k, values[k])
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// LoadConfig - Load configuration from an optional YAML file and the environment
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	var files []string
	if path != "" {
		files = append(files, path)
	}

	// Missing files are ignored; environment variables override file values.
	err := configor.New(&configor.Config{
		Debug:      false,
		Verbose:    false,
		Silent:     true,
		AutoReload: false,
	}).Load(cfg, files...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	applyEnvBools(reflect.ValueOf(cfg), os.LookupEnv)

	cfg.applyDerivedDefaults()

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDerivedDefaults() {
	if c.BigQuery.Enabled && c.BigQuery.ProjectID == "" {
		c.BigQuery.ProjectID = c.GCP.ProjectID
	}
	if c.Firebase.ProjectID == "" {
		c.Firebase.ProjectID = c.GCP.ProjectID
	}
}

// CommandTimeout is the per-command bound; zero means none.
func (c *Config) CommandTimeout() time.Duration {
	return executor.Seconds(c.Exec.TimeoutSeconds)
}

// ProgressSettings converts the exec section into runner defaults.
func (c *Config) ProgressSettings() executor.ProgressSettings {
	return executor.ProgressSettings{
		ShowProgress:  c.Exec.ShowProgress,
		IdleThreshold: executor.Seconds(c.Exec.IdleSeconds),
		Style:         executor.Style(c.Exec.Style),
		Interval:      executor.Seconds(c.Exec.IntervalSeconds),
	}
}

// SecretsActive reports whether the secrets section should run.
func (c *Config) SecretsActive() bool {
	return c.Secrets.Enabled && c.Secrets.Configure
}

// FirebaseActive reports whether the firebase section should run.
func (c *Config) FirebaseActive() bool {
	return c.Firebase.Enabled && c.Frontend.Deploy
}
