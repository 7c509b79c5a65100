package executor

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DetailLimit is the maximum number of characters of captured output
// embedded in an error message or a debug log line.
const DetailLimit = 2000

// TruncatedPlaceholder terminates every truncated text.
const TruncatedPlaceholder = "...(truncated)"

// NotFoundError is returned when the program cannot be located or executed.
type NotFoundError struct {
	Program string
	Err     error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("required command not found: %s (make sure gcloud/docker/firebase are installed and on PATH)", e.Program)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when the command did not finish before its deadline.
// The process group has already been killed when this error is returned.
type TimeoutError struct {
	Timeout     time.Duration
	CommandLine string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command did not finish within %s: %s", e.Timeout, e.CommandLine)
}

// ExitError is returned when the command ran to completion with a non-zero exit code.
type ExitError struct {
	ExitCode    int
	CommandLine string
	// Output is the full diagnostic text. Error() embeds at most DetailLimit characters of it.
	Output string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command failed: %s (exit=%d)", e.CommandLine, e.ExitCode)
	// The detail is always a prefix of Output.
	if detail := strings.TrimRight(e.Output, " \t\r\n"); strings.TrimSpace(detail) != "" {
		msg += "\noutput:\n" + Truncate(detail, DetailLimit)
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Truncate returns s unchanged when it fits in limit characters. Otherwise it
// returns the first limit characters followed by TruncatedPlaceholder.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + TruncatedPlaceholder
		}
		n++
	}
	return s
}
