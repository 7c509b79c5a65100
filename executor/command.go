package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/cnosuke/deploy-gcp/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	// drainGrace is how long output is still read after the process exited,
	// in case a descendant keeps the pipe open.
	drainGrace = 200 * time.Millisecond

	defaultMessageWidth = 72
)

// Run executes the invocation
func (r *Runner) Run(ctx context.Context, inv Invocation) (types.RunResult, error) {
	if len(inv.Args) == 0 || inv.Args[0] == "" {
		return types.RunResult{}, errors.New("empty command")
	}
	commandLine := strings.Join(inv.Args, " ")

	zap.S().Infow("running command",
		"command", commandLine,
		"working_dir", inv.Dir,
		"stream", inv.Stream)

	// The deadline covers the whole call, starting now.
	var deadline <-chan time.Time
	if inv.Timeout > 0 {
		timer := time.NewTimer(inv.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	if inv.Dir != "" {
		stat, err := os.Stat(inv.Dir)
		if err != nil || !stat.IsDir() {
			return types.RunResult{}, errors.Newf("directory does not exist: %s", inv.Dir)
		}
	}

	settings := resolveSettings(r.settings, r.lookupEnv, inv.Progress)
	message := inv.Message
	if message == "" {
		message = defaultProgressMessage(inv.Args)
	}

	c := &call{
		runner:      r,
		inv:         inv,
		commandLine: commandLine,
		deadline:    deadline,
		settings:    settings,
		message:     message,
		canRender:   settings.ShowProgress && IsInteractive(r.stderr),
	}

	cmd := exec.Command(inv.Args[0], inv.Args[1:]...) //nolint:gosec // running arbitrary tools is the purpose of this package
	cmd.Dir = inv.Dir
	cmd.Env = buildEnvironment(inv.Env)
	// Own process group, so a timeout can kill the whole tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if inv.Stream {
		return c.stream(ctx, cmd)
	}
	return c.capture(ctx, cmd)
}

// call carries the resolved state of a single Run.
type call struct {
	runner      *Runner
	inv         Invocation
	commandLine string
	deadline    <-chan time.Time
	settings    ProgressSettings
	message     string
	canRender   bool
}

func (c *call) startIndicator(start time.Time, lastActivity func() time.Time) *Indicator {
	if !c.canRender {
		return nil
	}
	ind := NewIndicator(
		newLineRenderer(c.runner.stderr, c.message),
		c.settings.Style,
		c.settings.Interval,
		c.settings.IdleThreshold)
	ind.Start(start, lastActivity)
	return ind
}

// stream merges stdout and stderr into one pipe, echoing each line as it arrives.
func (c *call) stream(ctx context.Context, cmd *exec.Cmd) (types.RunResult, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return types.RunResult{}, errors.Wrap(err, "failed to create output pipe")
	}
	defer pr.Close()

	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		pw.Close()
		return types.RunResult{}, c.startError(err)
	}
	// The child holds its own copy of the write end.
	pw.Close()

	started := time.Now()
	clock := newActivityClock(started)
	indicator := c.startIndicator(started, clock.Last)
	defer indicator.Stop()

	done := make(chan struct{})
	defer close(done)
	lines := readLines(pr, done)

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	var (
		out      strings.Builder
		waitErr  error
		finished bool
		drain    *time.Timer
		drained  <-chan time.Time
		deadline = c.deadline
	)
	defer func() {
		if drain != nil {
			drain.Stop()
		}
	}()

loop:
	for lines != nil || !finished {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			clock.Touch()
			indicator.Interrupt(func() {
				out.WriteString(line)
				_, _ = io.WriteString(c.runner.stdout, line)
			})
			// After exit, the grace period counts from the last line.
			if drain != nil {
				drain.Reset(drainGrace)
			}
		case waitErr = <-exited:
			finished = true
			deadline = nil
			drain = time.NewTimer(drainGrace)
			drained = drain.C
		case <-drained:
			zap.S().Debugw("output pipe still open after exit, stop reading",
				"command", c.commandLine)
			lines = nil
		case <-deadline:
			c.kill(cmd, exited)
			return types.RunResult{}, &TimeoutError{Timeout: c.inv.Timeout, CommandLine: c.commandLine}
		case <-ctx.Done():
			if finished {
				// The child already exited; keep its result.
				break loop
			}
			c.kill(cmd, exited)
			return types.RunResult{}, errors.Wrapf(ctx.Err(), "command canceled: %s", c.commandLine)
		}
	}

	combined := out.String()
	if waitErr != nil {
		return types.RunResult{}, c.waitError(waitErr, combined)
	}

	zap.S().Debugw("command output",
		"command", c.commandLine,
		"stdout", Truncate(strings.TrimSpace(combined), DetailLimit))

	return types.RunResult{ExitCode: 0, Stdout: combined}, nil
}

// capture runs the command quietly, keeping stdout and stderr apart.
func (c *call) capture(ctx context.Context, cmd *exec.Cmd) (types.RunResult, error) {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = drainGrace

	if err := cmd.Start(); err != nil {
		return types.RunResult{}, c.startError(err)
	}

	// No incremental activity signal here: idle time is time since start.
	started := time.Now()
	indicator := c.startIndicator(started, func() time.Time { return started })
	defer indicator.Stop()

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-exited:
	case <-c.deadline:
		c.kill(cmd, exited)
		return types.RunResult{}, &TimeoutError{Timeout: c.inv.Timeout, CommandLine: c.commandLine}
	case <-ctx.Done():
		c.kill(cmd, exited)
		return types.RunResult{}, errors.Wrapf(ctx.Err(), "command canceled: %s", c.commandLine)
	}
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		zap.S().Debugw("output pipe still open after exit, stop reading",
			"command", c.commandLine,
			"wait_delay", drainGrace)
		waitErr = nil
	}

	if waitErr != nil {
		detail := stderr.String()
		if strings.TrimSpace(detail) == "" {
			detail = stdout.String()
		}
		return types.RunResult{}, c.waitError(waitErr, detail)
	}

	zap.S().Debugw("command output",
		"command", c.commandLine,
		"stdout", Truncate(strings.TrimSpace(stdout.String()), DetailLimit),
		"stderr", Truncate(strings.TrimSpace(stderr.String()), DetailLimit))

	return types.RunResult{ExitCode: 0, Stdout: stdout.String(), Stderr: stderr.String()}, nil
}

// kill terminates the process group and reaps the child.
func (c *call) kill(cmd *exec.Cmd, exited <-chan error) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
	<-exited
	zap.S().Warnw("command killed",
		"command", c.commandLine,
		"pid", cmd.Process.Pid)
}

func (c *call) startError(err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return &NotFoundError{Program: c.inv.Args[0], Err: err}
	}
	return errors.Wrapf(err, "failed to start command: %s", c.commandLine)
}

func (c *call) waitError(err error, output string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			ExitCode:    exitErr.ExitCode(),
			CommandLine: c.commandLine,
			Output:      output,
			Err:         err,
		}
	}
	return errors.Wrapf(err, "failed to wait for command: %s", c.commandLine)
}

// buildEnvironment merges additionalEnv over the current process environment
func buildEnvironment(additionalEnv map[string]string) []string {
	if len(additionalEnv) == 0 {
		return nil // inherit parent env
	}

	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}
	for k, v := range additionalEnv {
		envMap[k] = v
	}

	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return env
}

// defaultProgressMessage shortens the command line to fit one terminal line.
func defaultProgressMessage(args []string) string {
	line := strings.Join(strings.Fields(strings.Join(args, " ")), " ")
	if utf8.RuneCountInString(line) <= defaultMessageWidth {
		return line
	}
	runes := []rune(line)
	return string(runes[:defaultMessageWidth-1]) + "…"
}
