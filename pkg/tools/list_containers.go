package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/rimaleon/podman-mcp/pkg/logx"
	"github.com/rimaleon/podman-mcp/pkg/metrics"
	"github.com/rimaleon/podman-mcp/pkg/podman"
)

// ListContainersTool lists running containers using the engine's default
// table formatting.
type ListContainersTool struct {
	ctx    ToolContext
	logger *logx.Logger
}

// NewListContainersTool creates a new list_containers tool instance.
func NewListContainersTool(ctx ToolContext) *ListContainersTool {
	return &ListContainersTool{
		ctx:    ctx.normalized(),
		logger: logx.NewLogger("list-containers"),
	}
}

func createListContainersTool(ctx ToolContext) (Tool, error) {
	return NewListContainersTool(ctx), nil
}

// Name returns the tool identifier.
func (t *ListContainersTool) Name() string {
	return ToolListContainers
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *ListContainersTool) PromptDocumentation() string {
	return `- **list_containers** - List all running containers
  - No parameters
  - Returns the podman ps table`
}

// Definition returns the list_containers tool definition.
func (t *ListContainersTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolListContainers,
		Description: "List all running containers",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
			Required:   []string{},
		},
	}
}

// Exec executes the list_containers tool.
func (t *ListContainersTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	start := time.Now()
	result, outcome := t.exec(ctx)
	metrics.ObserveToolCall(ToolListContainers, outcome, time.Since(start))
	return result, nil
}

func (t *ListContainersTool) exec(ctx context.Context) (*ExecResult, string) {
	trace := podman.NewTrace()
	fail := func(err error) (*ExecResult, string) {
		content := fmt.Sprintf("Error listing containers: %v\n\nDebug Information:\n%s", err, trace.String())
		return &ExecResult{Content: content}, metrics.OutcomeFailure
	}

	trace.Add("Listing all Podman containers")

	engine, err := t.ctx.NewEngine()
	if err != nil {
		return fail(err)
	}

	result, err := engine.PS(ctx)
	if err != nil {
		return fail(err)
	}
	if result.ExitCode != 0 {
		return fail(fmt.Errorf("Failed to list containers: %s", result.Stderr)) //nolint:staticcheck // message is part of the response contract
	}

	content := fmt.Sprintf("All Podman Containers:\n%s\n\nDebug Info:\n%s", result.Stdout, trace.String())
	return &ExecResult{Content: content}, metrics.OutcomeSuccess
}
