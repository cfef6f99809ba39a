package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/rimaleon/podman-mcp/pkg/logx"
	"github.com/rimaleon/podman-mcp/pkg/metrics"
	"github.com/rimaleon/podman-mcp/pkg/podman"
)

// GetLogsTool fetches the full log output of a container by name.
type GetLogsTool struct {
	ctx    ToolContext
	logger *logx.Logger
}

// NewGetLogsTool creates a new get_logs tool instance.
func NewGetLogsTool(ctx ToolContext) *GetLogsTool {
	return &GetLogsTool{
		ctx:    ctx.normalized(),
		logger: logx.NewLogger("get-logs"),
	}
}

func createGetLogsTool(ctx ToolContext) (Tool, error) {
	return NewGetLogsTool(ctx), nil
}

// Name returns the tool identifier.
func (t *GetLogsTool) Name() string {
	return ToolGetLogs
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *GetLogsTool) PromptDocumentation() string {
	return `- **get_logs** - Get the logs of a container by name
  - Parameters:
    - container_name (required): name of the container
  - Returns the container's full log output`
}

// Definition returns the get_logs tool definition.
func (t *GetLogsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolGetLogs,
		Description: "Get the logs of a container by name",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"container_name": {
					Type:        "string",
					Description: "Name of the container",
				},
			},
			Required: []string{"container_name"},
		},
	}
}

// Exec executes the get_logs tool.
func (t *GetLogsTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	start := time.Now()
	result, outcome := t.exec(ctx, args)
	metrics.ObserveToolCall(ToolGetLogs, outcome, time.Since(start))
	return result, nil
}

func (t *GetLogsTool) exec(ctx context.Context, args map[string]any) (*ExecResult, string) {
	trace := podman.NewTrace()
	fail := func(err error) (*ExecResult, string) {
		content := fmt.Sprintf("Error retrieving logs: %v\n\nDebug Information:\n%s", err, trace.String())
		return &ExecResult{Content: content}, metrics.OutcomeFailure
	}

	containerName := stringArg(args, "container_name")
	if containerName == "" {
		return fail(fmt.Errorf("Missing required container_name")) //nolint:staticcheck // message is part of the response contract
	}

	trace.Add("Fetching logs for container '%s'", containerName)

	engine, err := t.ctx.NewEngine()
	if err != nil {
		return fail(err)
	}

	result, err := engine.Logs(ctx, containerName)
	if err != nil {
		return fail(err)
	}
	if result.ExitCode != 0 {
		return fail(fmt.Errorf("Failed to get logs: %s", result.Stderr)) //nolint:staticcheck // message is part of the response contract
	}

	content := fmt.Sprintf("Logs for container '%s':\n%s\n\nDebug Info:\n%s", containerName, result.Stdout, trace.String())
	return &ExecResult{Content: content}, metrics.OutcomeSuccess
}
