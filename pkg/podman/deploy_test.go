package podman

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rimaleon/podman-mcp/pkg/exec"
)

const webStackYAML = `services:
  web:
    image: docker.io/library/nginx:latest
    ports:
      - "8080:80"
`

func TestDeploySuccess(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeExecutor{
		handler: func(argv []string, _ *exec.Opts) (exec.Result, error) {
			if subcommand(argv) == "ps" {
				return exec.Result{Stdout: "web_web_1  running"}, nil
			}
			return exec.Result{}, nil
		},
	}
	deployer := NewDeployerWith(dir, "podman-compose", fake)

	trace := NewTrace()
	result, err := deployer.Deploy(context.Background(), DeployRequest{
		ComposeYAML: webStackYAML,
		ProjectName: "web",
	}, trace)
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	if result.Services != "web_web_1  running" {
		t.Errorf("services = %q", result.Services)
	}

	var commands []string
	for _, argv := range fake.calls {
		commands = append(commands, subcommand(argv))
	}
	want := []string{"down", "up", "ps"}
	if strings.Join(commands, ",") != strings.Join(want, ",") {
		t.Errorf("commands = %v, want %v", commands, want)
	}

	for _, section := range []string{"=== Original YAML ===", "=== Loaded YAML Structure ===", "=== Down Command ===", "=== Up Command ==="} {
		if !strings.Contains(trace.String(), section) {
			t.Errorf("trace missing %q:\n%s", section, trace.String())
		}
	}
}

func TestDeployRemovesManifest(t *testing.T) {
	dir := t.TempDir()
	var manifestSeen string
	fake := &fakeExecutor{
		handler: func(argv []string, opts *exec.Opts) (exec.Result, error) {
			if subcommand(argv) == "up" {
				manifestSeen = filepath.Join(opts.WorkDir, argv[2])
				if _, err := os.Stat(manifestSeen); err != nil {
					t.Errorf("manifest missing while up runs: %v", err)
				}
			}
			return exec.Result{}, nil
		},
	}
	deployer := NewDeployerWith(dir, "podman-compose", fake)

	_, err := deployer.Deploy(context.Background(), DeployRequest{
		ComposeYAML: webStackYAML,
		ProjectName: "web",
	}, NewTrace())
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	if want := filepath.Join(dir, composeFileDir, "web-podman-compose.yml"); manifestSeen != want {
		t.Errorf("manifest path = %q, want %q", manifestSeen, want)
	}
	if _, err := os.Stat(manifestSeen); !os.IsNotExist(err) {
		t.Errorf("manifest still present after deploy: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, composeFileDir)); !os.IsNotExist(err) {
		t.Errorf("empty compose directory not removed: %v", err)
	}
}

func TestDeployInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeExecutor{}
	deployer := NewDeployerWith(dir, "podman-compose", fake)

	_, err := deployer.Deploy(context.Background(), DeployRequest{
		ComposeYAML: "services: [unbalanced",
		ProjectName: "web",
	}, NewTrace())
	if !IsKind(err, KindValidation) {
		t.Fatalf("error = %v, want a validation error", err)
	}
	if !strings.Contains(err.Error(), "Invalid YAML format") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if len(fake.calls) != 0 {
		t.Errorf("executor ran %d commands, want 0", len(fake.calls))
	}
	if _, statErr := os.Stat(filepath.Join(dir, composeFileDir)); !os.IsNotExist(statErr) {
		t.Error("compose directory created for an invalid manifest")
	}
}

func TestDeployMissingArguments(t *testing.T) {
	deployer := NewDeployerWith(t.TempDir(), "podman-compose", &fakeExecutor{})

	_, err := deployer.Deploy(context.Background(), DeployRequest{ProjectName: "web"}, NewTrace())
	if !IsKind(err, KindValidation) {
		t.Errorf("error = %v, want a validation error", err)
	}

	_, err = deployer.Deploy(context.Background(), DeployRequest{ComposeYAML: webStackYAML}, NewTrace())
	if !IsKind(err, KindValidation) {
		t.Errorf("error = %v, want a validation error", err)
	}
}

func TestDeployDownFailureIsNotFatal(t *testing.T) {
	fake := &fakeExecutor{
		handler: func(argv []string, _ *exec.Opts) (exec.Result, error) {
			if subcommand(argv) == "down" {
				return exec.Result{}, errors.New("spawn failed")
			}
			return exec.Result{}, nil
		},
	}
	deployer := NewDeployerWith(t.TempDir(), "podman-compose", fake)

	trace := NewTrace()
	_, err := deployer.Deploy(context.Background(), DeployRequest{
		ComposeYAML: webStackYAML,
		ProjectName: "web",
	}, trace)
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if !strings.Contains(trace.String(), "Warning during down:") {
		t.Errorf("trace missing down warning:\n%s", trace.String())
	}
}

func TestDeployDownExitCodeIsNotFatal(t *testing.T) {
	fake := &fakeExecutor{
		handler: func(argv []string, _ *exec.Opts) (exec.Result, error) {
			if subcommand(argv) == "down" {
				return exec.Result{ExitCode: 1, Stderr: "no such project"}, nil
			}
			return exec.Result{}, nil
		},
	}
	deployer := NewDeployerWith(t.TempDir(), "podman-compose", fake)

	trace := NewTrace()
	_, err := deployer.Deploy(context.Background(), DeployRequest{
		ComposeYAML: "services:\n  web:\n    image: nginx\n  db:\n    image: postgres\n",
		ProjectName: "demo",
	}, trace)
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if !strings.Contains(trace.String(), "Return Code: 1") {
		t.Errorf("trace missing down exit code:\n%s", trace.String())
	}
}

func TestDeployManifestKeepsKeyOrder(t *testing.T) {
	var written string
	fake := &fakeExecutor{
		handler: func(argv []string, opts *exec.Opts) (exec.Result, error) {
			if subcommand(argv) == "up" {
				data, err := os.ReadFile(filepath.Join(opts.WorkDir, argv[2]))
				if err != nil {
					t.Errorf("cannot read manifest: %v", err)
				}
				written = string(data)
			}
			return exec.Result{}, nil
		},
	}
	deployer := NewDeployerWith(t.TempDir(), "podman-compose", fake)

	_, err := deployer.Deploy(context.Background(), DeployRequest{
		ComposeYAML: "services:\n  zeta:\n    image: nginx\n  alpha:\n    image: redis\n",
		ProjectName: "web",
	}, NewTrace())
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	if strings.Index(written, "zeta") > strings.Index(written, "alpha") {
		t.Errorf("manifest keys were reordered:\n%s", written)
	}
}

func TestDeployUpFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeExecutor{
		handler: func(argv []string, _ *exec.Opts) (exec.Result, error) {
			if subcommand(argv) == "up" {
				return exec.Result{ExitCode: 1, Stderr: "port already in use"}, nil
			}
			return exec.Result{}, nil
		},
	}
	deployer := NewDeployerWith(dir, "podman-compose", fake)

	_, err := deployer.Deploy(context.Background(), DeployRequest{
		ComposeYAML: webStackYAML,
		ProjectName: "web",
	}, NewTrace())
	if !IsKind(err, KindProcess) {
		t.Fatalf("error = %v, want a process error", err)
	}
	if err.Error() != "Deploy failed with code 1: port already in use" {
		t.Errorf("unexpected message %q", err.Error())
	}

	// No ps after a failed up, and the manifest is still removed.
	for _, argv := range fake.calls {
		if subcommand(argv) == "ps" {
			t.Error("ps ran after a failed up")
		}
	}
	if _, statErr := os.Stat(filepath.Join(dir, composeFileDir, "web-podman-compose.yml")); !os.IsNotExist(statErr) {
		t.Error("manifest still present after failed deploy")
	}
}

func TestDeployPsFailureDegrades(t *testing.T) {
	fake := &fakeExecutor{
		handler: func(argv []string, _ *exec.Opts) (exec.Result, error) {
			if subcommand(argv) == "ps" {
				return exec.Result{ExitCode: 1, Stderr: "boom"}, nil
			}
			return exec.Result{}, nil
		},
	}
	deployer := NewDeployerWith(t.TempDir(), "podman-compose", fake)

	result, err := deployer.Deploy(context.Background(), DeployRequest{
		ComposeYAML: webStackYAML,
		ProjectName: "web",
	}, NewTrace())
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if result.Services != "Unable to list services" {
		t.Errorf("services = %q, want the placeholder", result.Services)
	}
}

func TestDeployPullWhenRequested(t *testing.T) {
	fake := &fakeExecutor{}
	deployer := NewDeployerWith(t.TempDir(), "podman-compose", fake)

	_, err := deployer.Deploy(context.Background(), DeployRequest{
		ComposeYAML: webStackYAML,
		ProjectName: "web",
		PullImages:  true,
	}, NewTrace())
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	var commands []string
	for _, argv := range fake.calls {
		commands = append(commands, subcommand(argv))
	}
	if strings.Join(commands, ",") != "down,pull,up,ps" {
		t.Errorf("commands = %v, want down,pull,up,ps", commands)
	}
}

func TestDeployIsIdempotent(t *testing.T) {
	deployer := NewDeployerWith(t.TempDir(), "podman-compose", &fakeExecutor{})

	for i := 0; i < 2; i++ {
		_, err := deployer.Deploy(context.Background(), DeployRequest{
			ComposeYAML: webStackYAML,
			ProjectName: "web",
		}, NewTrace())
		if err != nil {
			t.Fatalf("deploy %d failed: %v", i+1, err)
		}
	}
}
