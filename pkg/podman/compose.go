package podman

import (
	"context"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rimaleon/podman-mcp/pkg/exec"
	"github.com/rimaleon/podman-mcp/pkg/logx"
	"github.com/rimaleon/podman-mcp/pkg/metrics"
)

// Compose runs podman-compose commands against one manifest and project.
// The file is always referenced by base name with the manifest's directory
// as the working directory, so the same argv works for both the argv and
// the shell executor (the latter renders the directory as a cd prefix).
type Compose struct {
	ComposeFile string // absolute path to the manifest
	ProjectName string

	binPath  string
	executor exec.Executor
	logger   *logx.Logger

	// Timeout bounds each compose invocation. Defaults to
	// DefaultCommandTimeout.
	Timeout time.Duration
}

// NewCompose builds a Compose runner for the given manifest and project,
// selecting the executor for the current platform.
func NewCompose(composeFile, projectName string) *Compose {
	return NewComposeWith(composeFile, projectName, ComposeBinary, exec.ForPlatform(runtime.GOOS))
}

// NewComposeWith builds a Compose runner with an explicit binary and
// executor. Used by tests and by callers with a configured binary.
func NewComposeWith(composeFile, projectName, binPath string, executor exec.Executor) *Compose {
	abs, err := filepath.Abs(composeFile)
	if err != nil {
		abs = composeFile
	}
	return &Compose{
		ComposeFile: abs,
		ProjectName: projectName,
		binPath:     binPath,
		executor:    executor,
		logger:      logx.NewLogger("podman-compose"),
		Timeout:     DefaultCommandTimeout,
	}
}

// baseArgs returns the common podman-compose arguments.
func (c *Compose) baseArgs(command string, extra ...string) []string {
	argv := []string{
		c.binPath,
		"-f", filepath.Base(c.ComposeFile),
		"-p", c.ProjectName,
		command,
	}
	return append(argv, extra...)
}

// Down stops and removes the stack. Named volumes are removed as well — an
// explicit choice so a redeploy always starts from a clean slate.
func (c *Compose) Down(ctx context.Context) (exec.Result, error) {
	return c.run(ctx, "down", c.baseArgs("down", "--volumes"))
}

// Up starts the stack detached.
func (c *Compose) Up(ctx context.Context) (exec.Result, error) {
	return c.run(ctx, "up", c.baseArgs("up", "-d"))
}

// Pull fetches the images referenced by the manifest.
func (c *Compose) Pull(ctx context.Context) (exec.Result, error) {
	return c.run(ctx, "pull", c.baseArgs("pull"))
}

// PS lists the project's running services.
func (c *Compose) PS(ctx context.Context) (exec.Result, error) {
	return c.run(ctx, "ps", c.baseArgs("ps"))
}

func (c *Compose) run(ctx context.Context, op string, argv []string) (exec.Result, error) {
	if c.ProjectName == "" {
		return exec.Result{}, validationError("project name cannot be empty")
	}

	opts := &exec.Opts{WorkDir: filepath.Dir(c.ComposeFile), Timeout: c.Timeout}
	c.logger.Debug("Executing compose %s: %v (in %s)", op, argv, opts.WorkDir)

	result, err := c.executor.Run(ctx, argv, opts)
	metrics.ObserveCommand("compose-"+op, result.Duration)

	if err != nil {
		if exec.IsTimeout(err) {
			return result, timeoutError(op, err)
		}
		return result, &Error{Kind: KindEnvironment, Op: op, Err: err, Message: err.Error()}
	}
	return result, nil
}
