// Package exec provides process execution for podman commands.
// Two executors exist: ArgvExec runs an explicit argument vector without
// shell interpretation, ShellExec assembles a single quoted command string
// and runs it through the platform shell. ShellExec is reserved for Windows,
// where compose invocations need a working-directory change that only a
// shell can express; every other platform uses ArgvExec.
package exec

import (
	"context"
	"time"
)

// ExecutorType identifies an executor implementation.
type ExecutorType string

const (
	ExecutorTypeArgv  ExecutorType = "argv"
	ExecutorTypeShell ExecutorType = "shell"
)

// Executor runs a command and captures its output.
type Executor interface {
	// Run executes the command and returns the result. A non-zero exit
	// code is a normal result, not an error; Run returns a non-nil error
	// only when the process could not be started or the context deadline
	// expired before it finished.
	Run(ctx context.Context, argv []string, opts *Opts) (Result, error)

	// Name returns the executor type for logging.
	Name() ExecutorType
}

// Opts contains options for a single command execution.
type Opts struct {
	// WorkDir is the working directory for the command. ArgvExec sets it
	// on the child process directly; ShellExec renders it as a cd prefix.
	WorkDir string

	// Env contains additional environment variables (KEY=VALUE format).
	Env []string

	// Timeout bounds the command. Zero means no executor-level timeout.
	Timeout time.Duration
}

// Result contains the outcome of one command execution.
// Immutable after creation.
type Result struct {
	// Stdout contains the full captured standard output.
	Stdout string

	// Stderr contains the full captured standard error.
	Stderr string

	// ExecutorUsed indicates which executor produced this result.
	ExecutorUsed ExecutorType

	// Duration is how long the command took.
	Duration time.Duration

	// ExitCode is the exit code of the command.
	ExitCode int
}

// ForPlatform returns the executor for the given GOOS value.
// The selection happens once at startup; business logic never branches
// on the platform again.
func ForPlatform(goos string) Executor {
	if goos == "windows" {
		return NewShellExec()
	}
	return NewArgvExec()
}
