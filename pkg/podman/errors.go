// Package podman builds and runs podman and podman-compose commands.
package podman

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure so callers can match on the class
// instead of the message text.
type Kind int

const (
	// KindValidation: missing or malformed caller input. No process was
	// spawned and no file was written.
	KindValidation Kind = iota + 1

	// KindEnvironment: the podman or podman-compose binary is missing or
	// unusable on this host.
	KindEnvironment

	// KindProcess: an invoked command exited non-zero.
	KindProcess

	// KindTimeout: the execution ceiling expired before the command finished.
	KindTimeout

	// KindCleanup: removing the temporary manifest failed. Always logged,
	// never propagated as the operation outcome.
	KindCleanup
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEnvironment:
		return "environment"
	case KindProcess:
		return "process"
	case KindTimeout:
		return "timeout"
	case KindCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// Error is the structured failure type for podman operations.
type Error struct {
	Err      error  // wrapped cause, may be nil
	Op       string // operation that failed, e.g. "up", "logs"
	Message  string
	Stderr   string // captured stderr for process failures
	ExitCode int    // exit code for process failures
	Kind     Kind
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error in %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a podman Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}

// validationError builds a KindValidation error with a formatted message.
func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// processError builds a KindProcess error from a failed command.
func processError(op string, exitCode int, stderr string) *Error {
	return &Error{
		Kind:     KindProcess,
		Op:       op,
		ExitCode: exitCode,
		Stderr:   stderr,
		Message:  fmt.Sprintf("command %q failed with code %d: %s", op, exitCode, stderr),
	}
}

// timeoutError builds a KindTimeout error for the given operation.
func timeoutError(op string, err error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Op:      op,
		Err:     err,
		Message: fmt.Sprintf("command %q timed out", op),
	}
}
