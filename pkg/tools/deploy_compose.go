package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/rimaleon/podman-mcp/pkg/logx"
	"github.com/rimaleon/podman-mcp/pkg/metrics"
	"github.com/rimaleon/podman-mcp/pkg/podman"
)

// DeployComposeTool deploys a compose stack from YAML content. The previous
// stack for the project is torn down first, so redeploying the same project
// converges on the new manifest.
type DeployComposeTool struct {
	ctx    ToolContext
	logger *logx.Logger
}

// NewDeployComposeTool creates a new deploy_compose tool instance.
func NewDeployComposeTool(ctx ToolContext) *DeployComposeTool {
	return &DeployComposeTool{
		ctx:    ctx.normalized(),
		logger: logx.NewLogger("deploy-compose"),
	}
}

func createDeployComposeTool(ctx ToolContext) (Tool, error) {
	return NewDeployComposeTool(ctx), nil
}

// Name returns the tool identifier.
func (t *DeployComposeTool) Name() string {
	return ToolDeployCompose
}

// PromptDocumentation returns markdown documentation for LLM prompts.
func (t *DeployComposeTool) PromptDocumentation() string {
	return `- **deploy_compose** - Deploy a compose stack from YAML content
  - Parameters:
    - compose_yaml (required): the compose manifest as a YAML string
    - project_name (required): project name the stack is deployed under
    - pull_images (optional): pull referenced images before starting (default: false)
  - Tears down any existing stack for the project, then starts the new one detached
  - The response includes the running services and a full debug trace`
}

// Definition returns the deploy_compose tool definition.
func (t *DeployComposeTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        ToolDeployCompose,
		Description: "Deploy a compose stack from YAML content",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"compose_yaml": {
					Type:        "string",
					Description: "Compose manifest as a YAML string",
				},
				"project_name": {
					Type:        "string",
					Description: "Project name the stack is deployed under",
				},
				"pull_images": {
					Type:        "boolean",
					Description: "Pull referenced images before starting (default: false)",
				},
			},
			Required: []string{"compose_yaml", "project_name"},
		},
	}
}

// Exec executes the deploy_compose tool.
func (t *DeployComposeTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	start := time.Now()
	result, outcome := t.exec(ctx, args)
	metrics.ObserveToolCall(ToolDeployCompose, outcome, time.Since(start))
	return result, nil
}

func (t *DeployComposeTool) exec(ctx context.Context, args map[string]any) (*ExecResult, string) {
	trace := podman.NewTrace()
	fail := func(err error) (*ExecResult, string) {
		content := fmt.Sprintf("Error deploying compose stack: %v\n\nDebug Information:\n%s", err, trace.String())
		return &ExecResult{Content: content}, metrics.OutcomeFailure
	}

	req := podman.DeployRequest{
		ComposeYAML: stringArg(args, "compose_yaml"),
		ProjectName: stringArg(args, "project_name"),
		PullImages:  boolArg(args, "pull_images"),
	}
	if req.ComposeYAML == "" || req.ProjectName == "" {
		return fail(fmt.Errorf("Missing required compose_yaml or project_name")) //nolint:staticcheck // message is part of the response contract
	}

	deployer, err := t.ctx.NewDeployer()
	if err != nil {
		return fail(err)
	}

	result, err := deployer.Deploy(ctx, req, trace)
	if err != nil {
		return fail(err)
	}

	content := fmt.Sprintf("Successfully deployed compose stack '%s'\nRunning services:\n%s\n\nDebug Info:\n%s",
		req.ProjectName, result.Services, trace.String())
	return &ExecResult{Content: content}, metrics.OutcomeSuccess
}
