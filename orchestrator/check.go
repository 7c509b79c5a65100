package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cnosuke/deploy-gcp/config"
	"github.com/cnosuke/deploy-gcp/gcp"
)

// Checker inspects remote state without changing it
type Checker interface {
	CheckProjectAndAPIs(ctx context.Context) []gcp.CheckResult
	CheckRepository(ctx context.Context) gcp.CheckResult
	CheckGCSBucket(ctx context.Context) gcp.CheckResult
	CheckBigQueryResources(ctx context.Context) gcp.CheckResult
	CheckCloudSQL(ctx context.Context) []gcp.CheckResult
	CheckSecrets(ctx context.Context, baseDir string) []gcp.CheckResult
}

type checkGroup struct {
	title   string
	results []gcp.CheckResult
}

// Check inspects every resource the configuration depends on and renders a
// report. The bool is true when any warning or critical finding exists; with
// showAll every finding is listed, otherwise only the problems.
func Check(ctx context.Context, cfg *config.Config, c Checker, baseDir string, showAll bool) (string, bool) {
	groups := []checkGroup{
		{"Project & APIs", c.CheckProjectAndAPIs(ctx)},
		{"Artifact Registry", []gcp.CheckResult{c.CheckRepository(ctx)}},
		{"GCS", []gcp.CheckResult{c.CheckGCSBucket(ctx)}},
		{"BigQuery", []gcp.CheckResult{c.CheckBigQueryResources(ctx)}},
		{"Cloud SQL", c.CheckCloudSQL(ctx)},
		{"Secret Manager", c.CheckSecrets(ctx, baseDir)},
	}

	var critical, warnings []gcp.CheckResult
	var b strings.Builder
	b.WriteString("# Deploy pre-check\n")
	fmt.Fprintf(&b, "- project: %s\n", cfg.GCP.ProjectID)
	fmt.Fprintf(&b, "- region: %s\n", cfg.GCP.Region)

	for _, g := range groups {
		fmt.Fprintf(&b, "\n## %s\n", g.title)
		for _, r := range g.results {
			if showAll {
				fmt.Fprintf(&b, "- %s\n", r)
			}
			switch r.Severity {
			case gcp.SeverityCritical:
				critical = append(critical, r)
			case gcp.SeverityWarning:
				warnings = append(warnings, r)
			}
		}
	}

	if showAll {
		b.WriteString("\n## Section toggles\n")
		writeToggles(&b, cfg)
	}

	b.WriteString("\n## Summary\n")
	switch {
	case len(critical) > 0:
		b.WriteString("- status: critical issues found; resolve them before deploying\n")
	case len(warnings) > 0:
		b.WriteString("- status: warnings only; deploy will create or enable some resources\n")
	default:
		b.WriteString("- status: no major issues; ready to deploy\n")
	}

	writeFindings := func(title string, results []gcp.CheckResult) {
		fmt.Fprintf(&b, "\n### %s\n", title)
		if len(results) == 0 {
			b.WriteString("- (none)\n")
			return
		}
		for _, r := range results {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	if showAll || len(critical) > 0 {
		writeFindings("Critical issues", critical)
	}
	if showAll || len(warnings) > 0 {
		writeFindings("Warnings (resources deploy will create)", warnings)
	}
	if !showAll {
		b.WriteString("\nRun `deploy-gcp check -a` for the full status.\n")
	}

	return strings.TrimRight(b.String(), "\n"), len(critical) > 0 || len(warnings) > 0
}
