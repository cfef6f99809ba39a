package podman

import (
	"context"

	"github.com/rimaleon/podman-mcp/pkg/exec"
)

// fakeExecutor records every invocation and answers from a handler.
// When no handler is set, every command succeeds with empty output.
type fakeExecutor struct {
	calls   [][]string
	opts    []*exec.Opts
	handler func(argv []string, opts *exec.Opts) (exec.Result, error)
}

func (f *fakeExecutor) Run(_ context.Context, argv []string, opts *exec.Opts) (exec.Result, error) {
	f.calls = append(f.calls, argv)
	f.opts = append(f.opts, opts)
	if f.handler != nil {
		return f.handler(argv, opts)
	}
	return exec.Result{ExecutorUsed: exec.ExecutorTypeArgv}, nil
}

func (f *fakeExecutor) Name() exec.ExecutorType {
	return exec.ExecutorTypeArgv
}

// subcommand extracts the compose subcommand from an argv built by
// Compose.baseArgs (binary -f file -p project <command> ...).
func subcommand(argv []string) string {
	if len(argv) < 6 {
		return ""
	}
	return argv[5]
}
