package exec

import "testing"

func TestRenderCommand(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		workDir string
		want    string
	}{
		{
			name: "plain argv",
			argv: []string{"podman", "ps"},
			want: "podman ps",
		},
		{
			name:    "cd prefix",
			argv:    []string{"podman-compose", "-f", "web.yml", "-p", "web", "up", "-d"},
			workDir: `C:\stacks\web`,
			want:    `cd C:/stacks/web && podman-compose -f web.yml -p web up -d`,
		},
		{
			name:    "directory with spaces",
			argv:    []string{"podman", "ps"},
			workDir: `C:\Program Files\stacks`,
			want:    `cd "C:/Program Files/stacks" && podman ps`,
		},
		{
			name: "argument with spaces",
			argv: []string{"podman", "run", "-e", "GREETING=hello world", "alpine"},
			want: `podman run -e "GREETING=hello world" alpine`,
		},
		{
			name: "embedded quotes doubled",
			argv: []string{"podman", "run", "-e", `MSG=say "hi"`, "alpine"},
			want: `podman run -e "MSG=say ""hi""" alpine`,
		},
		{
			name: "shell metacharacters quoted",
			argv: []string{"podman", "run", "-e", "PIPELINE=a|b", "alpine"},
			want: `podman run -e "PIPELINE=a|b" alpine`,
		},
		{
			name: "empty argument",
			argv: []string{"podman", "run", "-e", "", "alpine"},
			want: `podman run -e "" alpine`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderCommand(tt.argv, tt.workDir)
			if got != tt.want {
				t.Errorf("RenderCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestForPlatform(t *testing.T) {
	if _, ok := ForPlatform("windows").(*ShellExec); !ok {
		t.Error("windows should get the shell executor")
	}
	if _, ok := ForPlatform("linux").(*ArgvExec); !ok {
		t.Error("linux should get the argv executor")
	}
	if _, ok := ForPlatform("darwin").(*ArgvExec); !ok {
		t.Error("darwin should get the argv executor")
	}
}
