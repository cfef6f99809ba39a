package podman

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestComposeArgAssembly(t *testing.T) {
	fake := &fakeExecutor{}
	compose := NewComposeWith("/stacks/web-podman-compose.yml", "web", "podman-compose", fake)

	tests := []struct {
		name string
		call func(context.Context) error
		want []string
	}{
		{"down", func(ctx context.Context) error { _, err := compose.Down(ctx); return err },
			[]string{"podman-compose", "-f", "web-podman-compose.yml", "-p", "web", "down", "--volumes"}},
		{"up", func(ctx context.Context) error { _, err := compose.Up(ctx); return err },
			[]string{"podman-compose", "-f", "web-podman-compose.yml", "-p", "web", "up", "-d"}},
		{"pull", func(ctx context.Context) error { _, err := compose.Pull(ctx); return err },
			[]string{"podman-compose", "-f", "web-podman-compose.yml", "-p", "web", "pull"}},
		{"ps", func(ctx context.Context) error { _, err := compose.PS(ctx); return err },
			[]string{"podman-compose", "-f", "web-podman-compose.yml", "-p", "web", "ps"}},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(context.Background()); err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
			if !reflect.DeepEqual(fake.calls[i], tt.want) {
				t.Errorf("argv = %v, want %v", fake.calls[i], tt.want)
			}
		})
	}
}

func TestComposeRunsInManifestDirectory(t *testing.T) {
	fake := &fakeExecutor{}
	compose := NewComposeWith("/stacks/web-podman-compose.yml", "web", "podman-compose", fake)

	if _, err := compose.Up(context.Background()); err != nil {
		t.Fatalf("Up failed: %v", err)
	}

	want := filepath.Dir(compose.ComposeFile)
	if got := fake.opts[0].WorkDir; got != want {
		t.Errorf("WorkDir = %q, want %q", got, want)
	}
}

func TestComposeRejectsEmptyProject(t *testing.T) {
	fake := &fakeExecutor{}
	compose := NewComposeWith("/stacks/x.yml", "", "podman-compose", fake)

	_, err := compose.Up(context.Background())
	if !IsKind(err, KindValidation) {
		t.Errorf("error = %v, want a validation error", err)
	}
	if len(fake.calls) != 0 {
		t.Errorf("executor ran %d commands, want 0", len(fake.calls))
	}
}
