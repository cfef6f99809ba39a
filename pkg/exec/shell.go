package exec

import (
	"context"
	"fmt"
	osexec "os/exec"
	"strings"
	"time"
)

// ShellExec assembles the argument vector into a single command string and
// runs it through the platform shell. Needed on Windows, where compose
// commands require a `cd` before invocation; the cd prefix is rendered from
// Opts.WorkDir so callers build the same logical argv on every platform.
type ShellExec struct {
	// Shell is the shell invocation prefix. Defaults to cmd /C.
	Shell []string

	// CommandRunner allows injecting a mock for testing.
	// If nil, uses exec.CommandContext.
	CommandRunner func(ctx context.Context, name string, args ...string) *osexec.Cmd
}

// NewShellExec creates a new ShellExec executor using cmd /C.
func NewShellExec() *ShellExec {
	return &ShellExec{Shell: []string{"cmd", "/C"}}
}

// Name returns the executor type name.
func (e *ShellExec) Name() ExecutorType {
	return ExecutorTypeShell
}

// Run executes a command by rendering argv into a quoted shell string.
func (e *ShellExec) Run(ctx context.Context, argv []string, opts *Opts) (Result, error) {
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

	cmdStr := RenderCommand(argv, opts.WorkDir)

	shell := e.Shell
	if len(shell) == 0 {
		shell = []string{"cmd", "/C"}
	}
	full := append(append([]string{}, shell...), cmdStr)

	var cmd *osexec.Cmd
	if e.CommandRunner != nil {
		cmd = e.CommandRunner(ctx, full[0], full[1:]...)
	} else {
		cmd = osexec.CommandContext(ctx, full[0], full[1:]...)
	}

	if len(opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), opts.Env...)
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

// RenderCommand converts an argument vector into a single shell command
// string, prefixing a working-directory change when workDir is set.
// Forward slashes are used in the cd target so the same rendering works
// under both cmd.exe and POSIX shells in tests.
func RenderCommand(argv []string, workDir string) string {
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		quoted = append(quoted, quoteArg(arg))
	}
	cmdStr := strings.Join(quoted, " ")

	if workDir != "" {
		dir := strings.ReplaceAll(workDir, `\`, "/")
		cmdStr = fmt.Sprintf(`cd %s && %s`, quoteArg(dir), cmdStr)
	}
	return cmdStr
}

// quoteArg wraps an argument in double quotes when it contains characters
// the shell would otherwise interpret. Embedded double quotes are doubled,
// which is the cmd.exe escaping convention.
func quoteArg(arg string) string {
	if arg == "" {
		return `""`
	}
	if !strings.ContainsAny(arg, " \t\"&|<>^()%") {
		return arg
	}
	return `"` + strings.ReplaceAll(arg, `"`, `""`) + `"`
}
