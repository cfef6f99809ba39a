package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/rimaleon/podman-mcp/pkg/logx"
	"github.com/rimaleon/podman-mcp/pkg/metrics"
	"github.com/rimaleon/podman-mcp/pkg/podman"
)

// CreateContainerTool creates a detached container from an image, with
// optional name, port mappings and environment variables.
type CreateContainerTool struct {
	ctx    ToolContext
	logger *logx.Logger
}

// NewCreateContainerTool creates a new create_container tool instance.
func NewCreateContainerTool(ctx ToolContext) *CreateContainerTool {
	return &CreateContainerTool{
		ctx:    ctx.normalized(),
		logger: logx.NewLogger("create-container"),
	}
}

func createCreateContainerTool(ctx ToolContext) (Tool, error) {
	return NewCreateContainerTool(ctx), nil
}

// Name returns the tool identifier.
func (t *CreateContainerTool) Name() string {
	return ToolCreateContainer
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *CreateContainerTool) PromptDocumentation() string {
	return `- **create_container** - Create and start a new container from an image
  - Parameters:
    - image (required): image reference, e.g. docker.io/library/nginx:latest
    - name (optional): container name
    - ports (optional): object mapping container port to host port; either side may carry a /udp suffix
    - environment (optional): object of environment variables
  - The container runs detached; output includes the new container ID`
}

// Definition returns the create_container tool definition.
func (t *CreateContainerTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolCreateContainer,
		Description: "Create and start a new container from an image",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"image": {
					Type:        "string",
					Description: "Image reference, e.g. docker.io/library/nginx:latest",
				},
				"name": {
					Type:        "string",
					Description: "Container name",
				},
				"ports": {
					Type:                 "object",
					Description:          "Port mappings: container port to host port, /udp suffix allowed on either side",
					AdditionalProperties: &Property{Type: "string"},
				},
				"environment": {
					Type:                 "object",
					Description:          "Environment variables to set in the container",
					AdditionalProperties: &Property{Type: "string"},
				},
			},
			Required: []string{"image"},
		},
	}
}

// Exec executes the create_container tool.
func (t *CreateContainerTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	start := time.Now()
	result, outcome := t.exec(ctx, args)
	metrics.ObserveToolCall(ToolCreateContainer, outcome, time.Since(start))
	return result, nil
}

func (t *CreateContainerTool) exec(ctx context.Context, args map[string]any) (*ExecResult, string) {
	fail := func(err error) (*ExecResult, string) {
		return &ExecResult{Content: fmt.Sprintf("Error creating container: %v | Arguments: %v", err, args)}, metrics.OutcomeFailure
	}

	image := stringArg(args, "image")
	if image == "" {
		return fail(fmt.Errorf("Image name cannot be empty")) //nolint:staticcheck // message is part of the response contract
	}

	engine, err := t.ctx.NewEngine()
	if err != nil {
		return fail(err)
	}

	spec := &podman.RunSpec{
		Image: image,
		Name:  stringArg(args, "name"),
		Ports: stringMapArg(args, "ports"),
		Env:   stringMapArg(args, "environment"),
	}

	result, err := engine.Run(ctx, spec)
	if err != nil {
		if podman.IsKind(err, podman.KindTimeout) {
			content := fmt.Sprintf("Operation timed out after %d seconds", int(t.ctx.Timeout.Seconds()))
			return &ExecResult{Content: content}, metrics.OutcomeFailure
		}
		return fail(err)
	}
	if result.ExitCode != 0 {
		return fail(fmt.Errorf("Failed to create container: %s", result.Stderr)) //nolint:staticcheck // message is part of the response contract
	}

	content := fmt.Sprintf("Created container '%s'\nOutput: %s", spec.Name, result.Stdout)
	return &ExecResult{Content: content}, metrics.OutcomeSuccess
}
