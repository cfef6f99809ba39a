package exec

import (
	"context"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"strings"
	"time"
)

// ArgvExec executes commands as an explicit argument vector with no shell
// interpretation. This avoids quoting and injection hazards entirely.
type ArgvExec struct {
	// CommandRunner allows injecting a mock for testing.
	// If nil, uses exec.CommandContext.
	CommandRunner func(ctx context.Context, name string, args ...string) *osexec.Cmd
}

// NewArgvExec creates a new ArgvExec executor.
func NewArgvExec() *ArgvExec {
	return &ArgvExec{}
}

// Name returns the executor type name.
func (e *ArgvExec) Name() ExecutorType {
	return ExecutorTypeArgv
}

// Run executes a command with the given options.
func (e *ArgvExec) Run(ctx context.Context, argv []string, opts *Opts) (Result, error) {
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("command cannot be empty")
	}
	if opts == nil {
		opts = &Opts{}
	}

	startTime := time.Now()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var cmd *osexec.Cmd
	if e.CommandRunner != nil {
		cmd = e.CommandRunner(ctx, argv[0], argv[1:]...)
	} else {
		cmd = osexec.CommandContext(ctx, argv[0], argv[1:]...)
	}

	if opts.WorkDir != "" {
		if _, err := os.Stat(opts.WorkDir); os.IsNotExist(err) {
			return Result{}, fmt.Errorf("working directory does not exist: %s", opts.WorkDir)
		}
		cmd.Dir = opts.WorkDir
	}

	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	stdout, stderr, exitCode, err := capture(cmd, ctx)

	result := Result{
		Stdout:       stdout,
		Stderr:       stderr,
		ExitCode:     exitCode,
		Duration:     time.Since(startTime),
		ExecutorUsed: e.Name(),
	}
	return result, err
}

// capture runs the command and collects its output. A non-zero exit code is
// folded into the result; only start failures and deadline expiry surface
// as errors.
func capture(cmd *osexec.Cmd, ctx context.Context) (stdout, stderr string, exitCode int, err error) {
	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()

	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if ctx.Err() != nil {
			// Deadline or cancellation wins over whatever exit status the
			// killed process reported.
			exitCode = -1
			err = fmt.Errorf("command timed out: %w", ctx.Err())
			return stdout, stderr, exitCode, err
		}
		var exitError *osexec.ExitError
		if errors.As(err, &exitError) {
			exitCode = exitError.ExitCode()
			err = nil
		} else {
			// Command failed to start: binary missing, permission denied.
			exitCode = -1
			err = fmt.Errorf("failed to start command %q: %w", cmd.Args[0], err)
		}
	}

	return stdout, stderr, exitCode, err
}

// IsTimeout reports whether err came from an expired execution deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
