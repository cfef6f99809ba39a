package podman

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/rimaleon/podman-mcp/pkg/exec"
	"github.com/rimaleon/podman-mcp/pkg/logx"
	"github.com/rimaleon/podman-mcp/pkg/metrics"
)

// RunSpec describes a single container to create.
// Ports maps container port to host port; either side may carry a /udp
// suffix (see ResolvePort). Env maps variable names to values.
type RunSpec struct {
	Image string
	Name  string
	Ports map[string]string
	Env   map[string]string
}

// DefaultCommandTimeout bounds each podman or podman-compose invocation
// unless the caller configures its own ceiling.
const DefaultCommandTimeout = 200 * time.Second

// Engine runs single-container podman commands: run, logs, ps.
// Each Engine re-resolves the binary path at construction, trading a small
// lookup cost for testability.
type Engine struct {
	binPath  string
	executor exec.Executor
	logger   *logx.Logger

	// Timeout bounds each command invocation. Defaults to
	// DefaultCommandTimeout.
	Timeout time.Duration
}

// NewEngine locates the podman binary and selects the executor for the
// current platform. Returns a KindEnvironment error when podman is missing.
func NewEngine() (*Engine, error) {
	binPath, err := FindEngine()
	if err != nil {
		return nil, err
	}
	return &Engine{
		binPath:  binPath,
		executor: exec.ForPlatform(runtime.GOOS),
		logger:   logx.NewLogger("podman"),
		Timeout:  DefaultCommandTimeout,
	}, nil
}

// NewEngineWith builds an Engine around an explicit binary path and
// executor. Used by tests and by callers with a configured binary.
func NewEngineWith(binPath string, executor exec.Executor) *Engine {
	return &Engine{
		binPath:  binPath,
		executor: executor,
		logger:   logx.NewLogger("podman"),
		Timeout:  DefaultCommandTimeout,
	}
}

// Run creates a detached container from the spec.
// Port and environment flags are emitted in sorted key order so the same
// spec always produces the same argv.
func (e *Engine) Run(ctx context.Context, spec *RunSpec) (exec.Result, error) {
	argv := []string{e.binPath, "run", "-d"}

	if spec.Name != "" {
		argv = append(argv, "--name", spec.Name)
	}
	for _, containerPort := range sortedKeys(spec.Ports) {
		mapping := ResolvePort(spec.Ports[containerPort], containerPort)
		argv = append(argv, "-p", mapping.Render())
	}
	for _, key := range sortedKeys(spec.Env) {
		argv = append(argv, "-e", key+"="+spec.Env[key])
	}
	argv = append(argv, spec.Image)

	return e.run(ctx, "run", argv)
}

// Logs fetches the full log output of a container by name.
func (e *Engine) Logs(ctx context.Context, containerName string) (exec.Result, error) {
	return e.run(ctx, "logs", []string{e.binPath, "logs", containerName})
}

// PS lists containers using the engine's default table formatting.
func (e *Engine) PS(ctx context.Context) (exec.Result, error) {
	return e.run(ctx, "ps", []string{e.binPath, "ps"})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (e *Engine) run(ctx context.Context, op string, argv []string) (exec.Result, error) {
	e.logger.Debug("Executing %s: %v", op, argv)

	result, err := e.executor.Run(ctx, argv, &exec.Opts{Timeout: e.Timeout})
	metrics.ObserveCommand(op, result.Duration)

	if err != nil {
		if exec.IsTimeout(err) {
			return result, timeoutError(op, err)
		}
		return result, &Error{Kind: KindEnvironment, Op: op, Err: err, Message: err.Error()}
	}
	return result, nil
}
