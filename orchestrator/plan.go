package orchestrator

import (
	"fmt"
	"strings"

	"github.com/cnosuke/deploy-gcp/config"
)

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func toggleStatus(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "SKIPPED"
}

func writeToggles(b *strings.Builder, cfg *config.Config) {
	for _, name := range Sections {
		fmt.Fprintf(b, "- %s: %s\n", name, toggleStatus(SectionEnabled(cfg, name)))
	}
}

// Plan describes what deploy would do without calling any tool.
func Plan(cfg *config.Config) string {
	var b strings.Builder
	b.WriteString("# Deploy plan\n")
	fmt.Fprintf(&b, "- project: %s\n", cfg.GCP.ProjectID)
	fmt.Fprintf(&b, "- region: %s\n", cfg.GCP.Region)
	b.WriteString("\n")

	b.WriteString("## Config summary\n")
	fmt.Fprintf(&b, "- backend_source_dir: %s\n", orNotSet(cfg.Backend.SourceDir))
	fmt.Fprintf(&b, "- backend_image_name: %s\n", orNotSet(cfg.Backend.ImageName))
	fmt.Fprintf(&b, "- frontend_source_dir: %s\n", orNotSet(cfg.Frontend.SourceDir))
	fmt.Fprintf(&b, "- enable_bigquery: %t\n", cfg.BigQuery.Enabled)
	fmt.Fprintf(&b, "- enable_cloud_sql: %t\n", cfg.CloudSQL.Enabled)
	fmt.Fprintf(&b, "- enable_gcs: %t\n", cfg.GCS.Enabled)
	fmt.Fprintf(&b, "- enable_firebase: %t\n", cfg.Firebase.Enabled)
	fmt.Fprintf(&b, "- enable_secret_manager: %t\n", cfg.Secrets.Enabled)
	fmt.Fprintf(&b, "- deploy_backend: %t\n", cfg.Backend.Deploy)
	fmt.Fprintf(&b, "- deploy_frontend: %t\n", cfg.Frontend.Deploy)
	fmt.Fprintf(&b, "- deploy_etl_job: %t\n", cfg.ETL.Deploy)
	fmt.Fprintf(&b, "- configure_secrets: %t\n", cfg.Secrets.Configure)
	b.WriteString("\n")

	b.WriteString("## Sections\n")
	writeToggles(&b, cfg)

	return strings.TrimRight(b.String(), "\n")
}
