package bridge

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrUnavailable indicates the pre-flight availability probe failed.
	ErrUnavailable = errors.New("provider CLI is not available")
	// ErrAborted indicates caller-initiated cancellation.
	ErrAborted = errors.New("call aborted")
)

// CLINotFoundError indicates the vendor CLI binary was not found or could
// not be spawned. This is a structural failure, distinct from a non-zero
// exit of a process that did run.
type CLINotFoundError struct {
	Cause error
	Path  string
}

func (e *CLINotFoundError) Error() string {
	return fmt.Sprintf("CLI binary not found at %q: %v", e.Path, e.Cause)
}

func (e *CLINotFoundError) Unwrap() error {
	return e.Cause
}

// ProtocolError indicates a received vendor event explicitly signaled an
// error status, or an event could not be interpreted.
type ProtocolError struct {
	Cause   error
	Message string
	Line    string
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// ExitError indicates the process closed with a non-zero status without an
// explicit protocol error event.
type ExitError struct {
	Stderr   string
	ExitCode int
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("CLI exited with code %d: %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("CLI exited with code %d", e.ExitCode)
}

// IsAborted reports whether err represents caller-initiated cancellation,
// as opposed to a process or protocol failure.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
