package orchestrator

import (
	"slices"
	"strings"

	"github.com/cnosuke/deploy-gcp/config"
	"github.com/cockroachdb/errors"
)

// Section names
const (
	SectionBackend  = "backend"
	SectionETL      = "etl"
	SectionBigQuery = "bq"
	SectionCloudSQL = "sql"
	SectionGCS      = "gcs"
	SectionSecrets  = "secrets"
	SectionFrontend = "frontend"
	SectionFirebase = "firebase"
)

// Sections lists every section in execution order.
var Sections = []string{
	SectionBackend,
	SectionETL,
	SectionBigQuery,
	SectionCloudSQL,
	SectionGCS,
	SectionSecrets,
	SectionFrontend,
	SectionFirebase,
}

// SectionEnabled reports whether the configuration turns the section on.
// Unknown names are never enabled.
func SectionEnabled(cfg *config.Config, name string) bool {
	switch name {
	case SectionBackend:
		return cfg.Backend.Deploy
	case SectionETL:
		return cfg.ETL.Deploy
	case SectionBigQuery:
		return cfg.BigQuery.Enabled
	case SectionCloudSQL:
		return cfg.CloudSQL.Enabled
	case SectionGCS:
		return cfg.GCS.Enabled
	case SectionSecrets:
		return cfg.SecretsActive()
	case SectionFrontend:
		return cfg.Frontend.Deploy
	case SectionFirebase:
		return cfg.FirebaseActive()
	default:
		return false
	}
}

// FilterSections returns the enabled sections in execution order, restricted
// to only when it is non-empty.
func FilterSections(cfg *config.Config, only []string) []string {
	var sections []string
	for _, name := range Sections {
		if len(only) > 0 && !slices.Contains(only, name) {
			continue
		}
		if SectionEnabled(cfg, name) {
			sections = append(sections, name)
		}
	}
	return sections
}

// ParseSectionList splits a comma separated list, dropping blanks.
func ParseSectionList(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// ValidateSectionNames rejects names that are not in Sections.
func ValidateSectionNames(names []string) error {
	var invalid []string
	for _, name := range names {
		if !slices.Contains(Sections, name) {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	return errors.WithHint(
		errors.Newf("invalid section(s): %s (allowed: %s)",
			strings.Join(invalid, ", "), strings.Join(Sections, ", ")),
		"pass a comma separated list, e.g. --only backend,secrets")
}
