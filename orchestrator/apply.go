package orchestrator

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cnosuke/deploy-gcp/config"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Provisioner performs the remote changes behind each section
type Provisioner interface {
	EnsureProjectAndAPIs(ctx context.Context) error
	EnsureDeployServiceAccount(ctx context.Context) error
	EnsureIAMRoles(ctx context.Context) error
	EnsureRepository(ctx context.Context) error
	BuildAndPushImage(ctx context.Context, name, sourceDir string) (string, error)
	DeployBackendService(ctx context.Context, imageURL string) error
	DeployETLJob(ctx context.Context, imageURL string) error
	EnsureBigQueryResources(ctx context.Context) error
	EnsureCloudSQL(ctx context.Context) error
	EnsureGCSBucket(ctx context.Context) error
	EnsureSecrets(ctx context.Context, baseDir string) ([]string, error)
	BuildFrontend(ctx context.Context) error
	DeployFrontend(ctx context.Context) error
}

// Summary is the outcome of one Apply
type Summary struct {
	RunID    string   `json:"run_id"`
	Project  string   `json:"project"`
	Executed []string `json:"executed"`
	Skipped  []string `json:"skipped"`
	Failed   []string `json:"failed"`
}

// HasFailures reports whether any section failed.
func (s Summary) HasFailures() bool {
	return len(s.Failed) > 0
}

// Render formats the summary as a markdown report.
func (s Summary) Render() string {
	var b strings.Builder
	b.WriteString("# Deploy summary\n")
	fmt.Fprintf(&b, "- project: %s\n", s.Project)
	fmt.Fprintf(&b, "- run_id: %s\n", s.RunID)

	for _, group := range []struct {
		title string
		names []string
	}{
		{"Executed sections", s.Executed},
		{"Skipped sections", s.Skipped},
		{"Failed sections", s.Failed},
	} {
		fmt.Fprintf(&b, "\n## %s\n", group.title)
		if len(group.names) == 0 {
			b.WriteString("- (none)\n")
			continue
		}
		for _, name := range group.names {
			fmt.Fprintf(&b, "- %s\n", name)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// applier holds the state shared by the sections of one Apply.
type applier struct {
	cfg     *config.Config
	p       Provisioner
	baseDir string
	log     *zap.SugaredLogger

	projectDone bool
	projectErr  error
}

// ensureProject enables the project APIs at most once per Apply.
func (a *applier) ensureProject(ctx context.Context) error {
	if !a.projectDone {
		a.projectErr = a.p.EnsureProjectAndAPIs(ctx)
		a.projectDone = true
	}
	return a.projectErr
}

// Apply runs the enabled sections, restricted to only when non-empty, in
// Sections order. A failing section does not stop the ones after it; the
// returned error combines every section failure.
func Apply(ctx context.Context, cfg *config.Config, p Provisioner, baseDir string, only []string) (Summary, error) {
	runID := uuid.NewString()
	a := &applier{
		cfg:     cfg,
		p:       p,
		baseDir: baseDir,
		log:     zap.S().With("run_id", runID),
	}
	summary := Summary{RunID: runID, Project: cfg.GCP.ProjectID}

	sections := FilterSections(cfg, only)
	a.log.Infow("applying sections", "sections", sections)

	var errs error
	for _, name := range Sections {
		if !slices.Contains(sections, name) {
			summary.Skipped = append(summary.Skipped, name)
			continue
		}

		a.log.Infow("running section", "section", name)
		err := ctx.Err()
		if err == nil {
			err = a.run(ctx, name)
		}
		if err != nil {
			a.log.Errorw("section failed",
				"section", name,
				"error", err)
			summary.Failed = append(summary.Failed, name)
			errs = multierr.Append(errs, errors.Wrapf(err, "section %s", name))
			continue
		}
		summary.Executed = append(summary.Executed, name)
	}

	a.log.Infow("apply finished",
		"executed", summary.Executed,
		"failed", summary.Failed)
	return summary, errs
}

func (a *applier) run(ctx context.Context, name string) error {
	switch name {
	case SectionBackend:
		return a.backend(ctx)
	case SectionETL:
		return a.etl(ctx)
	case SectionBigQuery:
		if err := a.ensureProject(ctx); err != nil {
			return err
		}
		return a.p.EnsureBigQueryResources(ctx)
	case SectionCloudSQL:
		if err := a.ensureProject(ctx); err != nil {
			return err
		}
		return a.p.EnsureCloudSQL(ctx)
	case SectionGCS:
		if err := a.ensureProject(ctx); err != nil {
			return err
		}
		return a.p.EnsureGCSBucket(ctx)
	case SectionSecrets:
		if err := a.ensureProject(ctx); err != nil {
			return err
		}
		written, err := a.p.EnsureSecrets(ctx, a.baseDir)
		a.log.Infow("secrets uploaded", "secrets", written)
		return err
	case SectionFrontend:
		return a.frontend(ctx)
	case SectionFirebase:
		return a.p.DeployFrontend(ctx)
	default:
		return errors.Newf("unknown section: %s", name)
	}
}

func (a *applier) backend(ctx context.Context) error {
	if err := a.ensureProject(ctx); err != nil {
		return err
	}
	if err := a.p.EnsureDeployServiceAccount(ctx); err != nil {
		return err
	}
	if err := a.p.EnsureIAMRoles(ctx); err != nil {
		return err
	}
	if err := a.p.EnsureRepository(ctx); err != nil {
		return err
	}

	image := a.cfg.Backend.ImageName
	if image == "" {
		a.log.Infow("BACKEND_IMAGE_NAME not set, skipping backend build and deploy")
		return nil
	}
	url, err := a.p.BuildAndPushImage(ctx, image, a.cfg.Backend.SourceDir)
	if err != nil {
		return err
	}
	return a.p.DeployBackendService(ctx, url)
}

// etl builds the backend source under the job's own image name.
func (a *applier) etl(ctx context.Context) error {
	if err := a.ensureProject(ctx); err != nil {
		return err
	}
	if err := a.p.EnsureRepository(ctx); err != nil {
		return err
	}

	if a.cfg.Backend.ImageName == "" {
		a.log.Infow("BACKEND_IMAGE_NAME not set, skipping ETL build and deploy")
		return nil
	}
	url, err := a.p.BuildAndPushImage(ctx, a.cfg.ETL.JobName, a.cfg.Backend.SourceDir)
	if err != nil {
		return err
	}
	return a.p.DeployETLJob(ctx, url)
}

func (a *applier) frontend(ctx context.Context) error {
	if err := a.p.BuildFrontend(ctx); err != nil {
		return err
	}

	image := a.cfg.Frontend.ImageName
	if image == "" {
		return nil
	}
	if err := a.ensureProject(ctx); err != nil {
		return err
	}
	if err := a.p.EnsureRepository(ctx); err != nil {
		return err
	}
	sourceDir := a.cfg.Frontend.SourceDir
	if sourceDir == "" {
		sourceDir = "."
	}
	_, err := a.p.BuildAndPushImage(ctx, image, sourceDir)
	return err
}
