package cmd

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

//go:embed templates/*.example
var templates embed.FS

var templateNames = []string{"env.infra.example", "env.secrets.example", "env.services.example"}

// ignoredEnvFiles must never be committed
var ignoredEnvFiles = []string{".env.infra", ".env.secrets", ".env.services"}

const gitignoreHeader = "# deploy-gcp: ignore local env files"

// NewInitCommand creates the init command
func NewInitCommand() *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Write env templates and make .gitignore ignore the real env files",
		Action: runInit,
	}
}

func runInit(c *cli.Context) error {
	if err := writeTemplates(c.App.Writer, baseDir); err != nil {
		return err
	}
	return updateGitignore(c.App.Writer, filepath.Join(baseDir, ".gitignore"))
}

// writeTemplates copies the embedded templates into dir, keeping existing files.
func writeTemplates(out io.Writer, dir string) error {
	for _, name := range templateNames {
		target := filepath.Join(dir, name)
		if _, err := os.Stat(target); err == nil {
			fmt.Fprintf(out, "%s already exists, skipped\n", name)
			continue
		}

		data, err := templates.ReadFile("templates/" + name)
		if err != nil {
			return errors.Wrapf(err, "template %s is missing", name)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return errors.Wrapf(err, "failed to write %s", target)
		}
		fmt.Fprintf(out, "created %s\n", name)
	}
	return nil
}

// updateGitignore appends ignore rules for the env files that are not listed yet.
func updateGitignore(out io.Writer, path string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		// init still succeeds without a readable .gitignore
		zap.S().Warnw("failed to read .gitignore", "path", path, "error", err)
		return nil
	}

	content := string(existing)
	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	var missing []string
	for _, pattern := range ignoredEnvFiles {
		if !slices.Contains(lines, pattern) {
			missing = append(missing, pattern)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if content != "" {
		content += "\n"
	}
	content += gitignoreHeader + "\n" + strings.Join(missing, "\n") + "\n"

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		zap.S().Warnw("failed to write .gitignore", "path", path, "error", err)
		return nil
	}
	fmt.Fprintf(out, "added %s to .gitignore\n", strings.Join(missing, ", "))
	return nil
}
