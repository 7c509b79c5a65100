package gcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/cnosuke/deploy-gcp/config"
	"github.com/cnosuke/deploy-gcp/executor"
	"github.com/cnosuke/deploy-gcp/types"
	"github.com/cockroachdb/errors"
)

// Client builds gcloud, bq, firebase and sh invocations from the deploy
// configuration and hands them to a CommandRunner.
type Client struct {
	runner executor.CommandRunner
	cfg    *config.Config
}

// NewClient - Create a new Client
func NewClient(runner executor.CommandRunner, cfg *config.Config) *Client {
	return &Client{runner: runner, cfg: cfg}
}

func (c *Client) project() string {
	return c.cfg.GCP.ProjectID
}

func (c *Client) projectFlag() string {
	return "--project=" + c.cfg.GCP.ProjectID
}

// query runs a read-only command quietly and returns its captured output.
func (c *Client) query(ctx context.Context, message string, args ...string) (types.RunResult, error) {
	return c.runner.Run(ctx, executor.Invocation{
		Args:    args,
		Timeout: c.cfg.CommandTimeout(),
		Message: message,
	})
}

// mutate runs a command that changes remote state, streaming when configured.
func (c *Client) mutate(ctx context.Context, dir, message string, args ...string) error {
	_, err := c.runner.Run(ctx, executor.Invocation{
		Args:    args,
		Dir:     dir,
		Timeout: c.cfg.CommandTimeout(),
		Stream:  c.cfg.Exec.StreamOutput,
		Message: message,
	})
	return err
}

// exists runs a describe-style command. A non-zero exit means the resource
// is absent; every other failure is returned.
func (c *Client) exists(ctx context.Context, message string, args ...string) (bool, error) {
	_, err := c.query(ctx, message, args...)
	if err == nil {
		return true, nil
	}
	if IsMissing(err) {
		return false, nil
	}
	return false, err
}

// IsMissing reports whether err is a non-zero exit from the wrapped tool.
func IsMissing(err error) bool {
	var exitErr *executor.ExitError
	return errors.As(err, &exitErr)
}

// Severity ranks a check finding
type Severity int

const (
	// SeverityInfo needs no action
	SeverityInfo Severity = iota
	// SeverityWarning is something deploy would create or enable
	SeverityWarning
	// SeverityCritical blocks deploy
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "info"
	}
}

// Check statuses
const (
	StatusOK            = "ok"
	StatusMissing       = "missing"
	StatusDisabled      = "disabled"
	StatusNotConfigured = "not configured"
	StatusUnknown       = "unable to check"
)

// CheckResult is one finding of a pre-deploy check
type CheckResult struct {
	Component string   `json:"component"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Severity  Severity `json:"severity"`
	Detail    string   `json:"detail,omitempty"`
}

func (r CheckResult) String() string {
	s := fmt.Sprintf("%s: %s - %s", r.Component, r.Name, r.Status)
	if r.Detail != "" {
		s += " (" + r.Detail + ")"
	}
	return s
}

func okResult(component, name string) CheckResult {
	return CheckResult{Component: component, Name: name, Status: StatusOK, Severity: SeverityInfo}
}

func disabledResult(component, toggle string) CheckResult {
	return CheckResult{
		Component: component,
		Name:      toggle,
		Status:    StatusDisabled,
		Severity:  SeverityInfo,
	}
}

func unknownResult(component, name string, err error) CheckResult {
	return CheckResult{
		Component: component,
		Name:      name,
		Status:    StatusUnknown,
		Severity:  SeverityCritical,
		Detail:    firstLine(err.Error()),
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return executor.Truncate(s, 200)
}

// outputLines splits captured output into trimmed, non-empty lines.
func outputLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
