package executor

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/cnosuke/deploy-gcp/types"
)

// CommandRunner is the main interface for command execution
type CommandRunner interface {
	// Run executes the invocation and returns its result or a typed failure
	Run(ctx context.Context, inv Invocation) (types.RunResult, error)
}

// Invocation describes a single command execution
type Invocation struct {
	// Args is the program followed by its arguments
	Args []string

	// Dir overrides the working directory
	Dir string

	// Env is merged over the ambient process environment
	Env map[string]string

	// Timeout bounds the whole call. Zero means no deadline.
	Timeout time.Duration

	// Stream echoes merged stdout/stderr live instead of capturing quietly
	Stream bool

	// Message is shown next to the spinner. Defaults to the shortened command line.
	Message string

	// Progress overrides the resolved progress settings for this call only
	Progress ProgressOverrides
}

// Option customizes a Runner
type Option func(*Runner)

// WithStdout sets where streamed output is echoed.
func WithStdout(w io.Writer) Option {
	return func(r *Runner) { r.stdout = w }
}

// WithStderr sets the stream the progress indicator draws on.
func WithStderr(w io.Writer) Option {
	return func(r *Runner) { r.stderr = w }
}

// WithLookupEnv replaces os.LookupEnv for progress setting overrides.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(r *Runner) { r.lookupEnv = fn }
}

// Runner launches child processes. It holds no per-call state and is safe for
// concurrent use.
type Runner struct {
	settings  *SettingsStore
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv func(string) (string, bool)
}

// NewRunner creates a Runner reading its progress defaults from settings.
// A nil store falls back to DefaultProgressSettings.
func NewRunner(settings *SettingsStore, opts ...Option) *Runner {
	if settings == nil {
		settings = NewSettingsStore(DefaultProgressSettings())
	}
	r := &Runner{
		settings:  settings,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Settings returns the store backing this runner.
func (r *Runner) Settings() *SettingsStore {
	return r.settings
}
