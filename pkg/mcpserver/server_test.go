package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rimaleon/podman-mcp/pkg/exec"
	"github.com/rimaleon/podman-mcp/pkg/podman"
	"github.com/rimaleon/podman-mcp/pkg/tools"
)

type stubExecutor struct {
	stdout string
}

func (s *stubExecutor) Run(context.Context, []string, *exec.Opts) (exec.Result, error) {
	return exec.Result{Stdout: s.stdout}, nil
}

func (s *stubExecutor) Name() exec.ExecutorType {
	return exec.ExecutorTypeArgv
}

func testServer(t *testing.T, stdout string) *Server {
	t.Helper()
	provider := tools.NewProvider(tools.ToolContext{
		NewEngine: func() (*podman.Engine, error) {
			return podman.NewEngineWith("podman", &stubExecutor{stdout: stdout}), nil
		},
	}, tools.AllToolNames())
	return NewServer(provider, nil)
}

// roundTrip feeds line-delimited requests through the stream loop and
// returns the decoded responses.
func roundTrip(t *testing.T, server *Server, requests ...string) []JSONRPCResponse {
	t.Helper()

	input := strings.Join(requests, "\n") + "\n"
	var output bytes.Buffer
	if err := server.serveStream(context.Background(), strings.NewReader(input), &output); err != nil {
		t.Fatalf("serveStream failed: %v", err)
	}

	var responses []JSONRPCResponse
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line == "" {
			continue
		}
		var resp JSONRPCResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("invalid response line %q: %v", line, err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func TestInitialize(t *testing.T) {
	server := testServer(t, "")

	responses := roundTrip(t, server, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}

	result, ok := responses[0].Result.(map[string]any)
	if !ok {
		t.Fatalf("unexpected result type %T", responses[0].Result)
	}
	info, _ := result["serverInfo"].(map[string]any)
	if info["name"] != ServerName {
		t.Errorf("serverInfo.name = %v, want %q", info["name"], ServerName)
	}
	if result["protocolVersion"] != protocolVersion {
		t.Errorf("protocolVersion = %v", result["protocolVersion"])
	}
}

func TestInitializedNotificationHasNoResponse(t *testing.T) {
	server := testServer(t, "")

	responses := roundTrip(t, server,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
}

func TestToolsList(t *testing.T) {
	server := testServer(t, "")

	responses := roundTrip(t, server, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	result, _ := responses[0].Result.(map[string]any)
	list, _ := result["tools"].([]any)
	if len(list) != len(tools.AllToolNames()) {
		t.Fatalf("listed %d tools, want %d", len(list), len(tools.AllToolNames()))
	}

	names := make(map[string]bool)
	for _, entry := range list {
		tool, _ := entry.(map[string]any)
		names[tool["name"].(string)] = true
		if _, ok := tool["inputSchema"].(map[string]any); !ok {
			t.Errorf("tool %v missing inputSchema", tool["name"])
		}
	}
	for _, want := range tools.AllToolNames() {
		if !names[want] {
			t.Errorf("tool %q not listed", want)
		}
	}
}

func TestToolsCall(t *testing.T) {
	server := testServer(t, "CONTAINER ID  IMAGE\n")

	var recorded []ToolCallRecord
	server.SetObserver(func(record ToolCallRecord) {
		recorded = append(recorded, record)
	})

	responses := roundTrip(t, server,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"list_containers","arguments":{}}}`)

	result, _ := responses[0].Result.(map[string]any)
	content, _ := result["content"].([]any)
	if len(content) != 1 {
		t.Fatalf("got %d content blocks, want 1", len(content))
	}
	block, _ := content[0].(map[string]any)
	text, _ := block["text"].(string)
	if !strings.Contains(text, "All Podman Containers:") {
		t.Errorf("unexpected tool output %q", text)
	}

	if len(recorded) != 1 {
		t.Fatalf("observer saw %d records, want 1", len(recorded))
	}
	if recorded[0].Tool != "list_containers" || !recorded[0].Succeeded {
		t.Errorf("unexpected record %+v", recorded[0])
	}
	if recorded[0].SessionID != server.SessionID() {
		t.Errorf("record session = %q, want %q", recorded[0].SessionID, server.SessionID())
	}
}

func TestUnknownMethod(t *testing.T) {
	server := testServer(t, "")

	responses := roundTrip(t, server, `{"jsonrpc":"2.0","id":4,"method":"prompts/list"}`)
	if responses[0].Error == nil || responses[0].Error.Code != -32601 {
		t.Errorf("unexpected response %+v", responses[0])
	}
}

func TestParseError(t *testing.T) {
	server := testServer(t, "")

	responses := roundTrip(t, server, `{not json`)
	if responses[0].Error == nil || responses[0].Error.Code != -32700 {
		t.Errorf("unexpected response %+v", responses[0])
	}
}

func TestUnknownToolIsProtocolError(t *testing.T) {
	server := testServer(t, "")

	responses := roundTrip(t, server,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"no_such_tool","arguments":{}}}`)
	if responses[0].Error == nil || responses[0].Error.Code != -32602 {
		t.Errorf("unexpected response %+v", responses[0])
	}
}
