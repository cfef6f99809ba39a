package tools

import "github.com/rimaleon/podman-mcp/pkg/podman"

// Tool name constants - use these instead of magic strings to prevent typos
// and enable compile-time checking.
const (
	ToolCreateContainer = "create_container"
	ToolDeployCompose   = "deploy_compose"
	ToolGetLogs         = "get_logs"
	ToolListContainers  = "list_containers"
)

// DefaultTimeout bounds each podman or podman-compose invocation spawned by
// a tool.
const DefaultTimeout = podman.DefaultCommandTimeout

// AllToolNames returns the default allow-list: every tool this server ships.
func AllToolNames() []string {
	return []string{ToolCreateContainer, ToolDeployCompose, ToolGetLogs, ToolListContainers}
}
