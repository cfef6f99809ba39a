package tools

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rimaleon/podman-mcp/pkg/podman"
)

// ToolContext contains server-specific configuration for tool creation.
// The engine and deployer constructors are lazy so that argument validation
// can fail before any binary lookup happens; tests inject fakes here.
type ToolContext struct {
	Timeout     time.Duration
	NewEngine   func() (*podman.Engine, error)
	NewDeployer func() (*podman.Deployer, error)
}

// normalized returns a copy with defaults filled in. The timeout applies to
// each child-process invocation, so the default constructors propagate it
// onto the engine and deployer.
func (c ToolContext) normalized() ToolContext {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	timeout := c.Timeout
	if c.NewEngine == nil {
		c.NewEngine = func() (*podman.Engine, error) {
			engine, err := podman.NewEngine()
			if err != nil {
				return nil, err
			}
			engine.Timeout = timeout
			return engine, nil
		}
	}
	if c.NewDeployer == nil {
		c.NewDeployer = func() (*podman.Deployer, error) {
			deployer, err := podman.NewDeployer()
			if err != nil {
				return nil, err
			}
			deployer.Timeout = timeout
			return deployer, nil
		}
	}
	return c
}

// ToolFactory creates a tool instance configured for a specific context.
type ToolFactory func(ctx ToolContext) (Tool, error)

// ToolMeta contains metadata about a tool for documentation and discovery.
type ToolMeta struct {
	Name        string
	Description string
	InputSchema InputSchema
}

// toolDescriptor contains the factory and metadata for a tool.
type toolDescriptor struct {
	meta    ToolMeta
	factory ToolFactory
}

// immutableRegistry is the global, read-only tool registry.
type immutableRegistry struct {
	mu     sync.RWMutex
	sealed bool
	tools  map[string]toolDescriptor
}

//nolint:gochecknoglobals // Factory pattern requires global registry
var globalRegistry = &immutableRegistry{
	tools: make(map[string]toolDescriptor),
}

// Register adds a tool factory to the global registry.
// Panics if called after the registry is sealed.
func Register(name string, factory ToolFactory, meta *ToolMeta) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if globalRegistry.sealed {
		panic(fmt.Sprintf("tool registry sealed - cannot register tool '%s'", name))
	}

	globalRegistry.tools[name] = toolDescriptor{
		meta:    *meta,
		factory: factory,
	}
}

// Seal prevents further tool registrations.
// Called automatically when the first ToolProvider is created.
func Seal() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.sealed = true
}

// ListTools returns metadata for all registered tools.
func ListTools() []ToolMeta {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	result := make([]ToolMeta, 0, len(globalRegistry.tools))
	for _, desc := range globalRegistry.tools {
		result = append(result, desc.meta)
	}
	return result
}

// ToolProvider creates and manages tool instances for one server context.
type ToolProvider struct {
	ctx      ToolContext
	tools    map[string]Tool
	allowSet map[string]struct{}
	mu       sync.Mutex
}

// NewProvider creates a ToolProvider for the given context and allowed
// tools. Automatically seals the global registry on first use.
func NewProvider(ctx ToolContext, allowedTools []string) *ToolProvider {
	Seal()

	allowSet := make(map[string]struct{}, len(allowedTools))
	for _, name := range allowedTools {
		allowSet[name] = struct{}{}
	}

	return &ToolProvider{
		ctx:      ctx.normalized(),
		tools:    make(map[string]Tool),
		allowSet: allowSet,
	}
}

// Get retrieves a tool instance, creating it lazily if needed.
func (p *ToolProvider) Get(name string) (Tool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.allowSet[name]; !ok {
		return nil, fmt.Errorf("tool '%s' not allowed in this context", name)
	}

	if tool, ok := p.tools[name]; ok {
		return tool, nil
	}

	globalRegistry.mu.RLock()
	desc, exists := globalRegistry.tools[name]
	globalRegistry.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("tool '%s' not registered", name)
	}

	tool, err := desc.factory(p.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool '%s': %w", name, err)
	}

	p.tools[name] = tool
	return tool, nil
}

// Must is like Get but panics on error. Use for tools that must exist.
func (p *ToolProvider) Must(name string) Tool {
	tool, err := p.Get(name)
	if err != nil {
		panic(err)
	}
	return tool
}

// List returns metadata for all allowed tools.
func (p *ToolProvider) List() []ToolMeta {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	result := make([]ToolMeta, 0, len(p.allowSet))
	for name := range p.allowSet {
		if desc, ok := globalRegistry.tools[name]; ok {
			result = append(result, desc.meta)
		}
	}
	return result
}

// GenerateToolDocumentation creates markdown documentation for this
// provider's allowed tools.
func (p *ToolProvider) GenerateToolDocumentation() string {
	tools := p.List()
	if len(tools) == 0 {
		return "No tools available"
	}

	var doc strings.Builder
	doc.WriteString("## Available Tools\n\n")
	for _, meta := range tools {
		doc.WriteString(fmt.Sprintf("- **%s** - %s\n", meta.Name, meta.Description))
	}
	return doc.String()
}

//nolint:gochecknoinits // Factory pattern requires init() for tool registration
func init() {
	Register(ToolCreateContainer, createCreateContainerTool, &ToolMeta{
		Name:        ToolCreateContainer,
		Description: "Create and start a new container from an image",
		InputSchema: NewCreateContainerTool(ToolContext{}).Definition().InputSchema,
	})

	Register(ToolDeployCompose, createDeployComposeTool, &ToolMeta{
		Name:        ToolDeployCompose,
		Description: "Deploy a compose stack from YAML content",
		InputSchema: NewDeployComposeTool(ToolContext{}).Definition().InputSchema,
	})

	Register(ToolGetLogs, createGetLogsTool, &ToolMeta{
		Name:        ToolGetLogs,
		Description: "Get the logs of a container by name",
		InputSchema: NewGetLogsTool(ToolContext{}).Definition().InputSchema,
	})

	Register(ToolListContainers, createListContainersTool, &ToolMeta{
		Name:        ToolListContainers,
		Description: "List all running containers",
		InputSchema: NewListContainersTool(ToolContext{}).Definition().InputSchema,
	})
}
