package exec

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func requirePosix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestArgvExecCapturesOutput(t *testing.T) {
	requirePosix(t)
	e := NewArgvExec()

	result, err := e.Run(context.Background(), []string{"sh", "-c", "echo out; echo err >&2"}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Stdout != "out\n" {
		t.Errorf("stdout = %q", result.Stdout)
	}
	if result.Stderr != "err\n" {
		t.Errorf("stderr = %q", result.Stderr)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code = %d", result.ExitCode)
	}
	if result.ExecutorUsed != ExecutorTypeArgv {
		t.Errorf("executor = %q", result.ExecutorUsed)
	}
}

func TestArgvExecNonZeroExit(t *testing.T) {
	requirePosix(t)
	e := NewArgvExec()

	result, err := e.Run(context.Background(), []string{"sh", "-c", "exit 3"}, nil)
	if err != nil {
		t.Fatalf("a non-zero exit must not be an error, got %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", result.ExitCode)
	}
}

func TestArgvExecMissingBinary(t *testing.T) {
	e := NewArgvExec()

	result, err := e.Run(context.Background(), []string{"no-such-binary-anywhere"}, nil)
	if err == nil {
		t.Fatal("expected an error for a missing binary")
	}
	if !strings.Contains(err.Error(), "failed to start command") {
		t.Errorf("unexpected message %q", err.Error())
	}
	if result.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1", result.ExitCode)
	}
}

func TestArgvExecTimeout(t *testing.T) {
	requirePosix(t)
	e := NewArgvExec()

	result, err := e.Run(context.Background(), []string{"sleep", "5"}, &Opts{Timeout: 50 * time.Millisecond})
	if !IsTimeout(err) {
		t.Fatalf("error = %v, want a timeout", err)
	}
	if result.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1", result.ExitCode)
	}
}

func TestArgvExecWorkDir(t *testing.T) {
	requirePosix(t)
	e := NewArgvExec()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("here\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := e.Run(context.Background(), []string{"cat", "marker.txt"}, &Opts{WorkDir: dir})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Stdout != "here\n" {
		t.Errorf("stdout = %q", result.Stdout)
	}
}

func TestArgvExecWorkDirMustExist(t *testing.T) {
	e := NewArgvExec()

	_, err := e.Run(context.Background(), []string{"true"}, &Opts{WorkDir: "/no/such/dir"})
	if err == nil || !strings.Contains(err.Error(), "working directory does not exist") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestArgvExecEnv(t *testing.T) {
	requirePosix(t)
	e := NewArgvExec()

	result, err := e.Run(context.Background(), []string{"sh", "-c", "echo $DEPLOY_TARGET"}, &Opts{Env: []string{"DEPLOY_TARGET=staging"}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Stdout != "staging\n" {
		t.Errorf("stdout = %q", result.Stdout)
	}
}

func TestArgvExecEmptyCommand(t *testing.T) {
	e := NewArgvExec()
	if _, err := e.Run(context.Background(), nil, nil); err == nil {
		t.Error("expected an error for an empty command")
	}
}
