// Package tools provides MCP (Model Context Protocol) tool implementations and registry.
package tools

import "context"

// Tool is one callable MCP tool.
type Tool interface {
	// Name returns the tool identifier.
	Name() string

	// Definition returns the tool definition for protocol listings.
	Definition() ToolDefinition

	// PromptDocumentation returns markdown documentation for LLM prompts.
	PromptDocumentation() string

	// Exec executes the tool with the given arguments.
	Exec(ctx context.Context, args map[string]any) (*ExecResult, error)
}

// ToolDefinition describes a tool in the wire format tool-calling APIs
// expect: a name, a description, and a JSON-schema input shape.
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// InputSchema is the JSON-schema object describing a tool's arguments.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property is one schema property. Items and Properties cover array and
// nested-object parameters.
type Property struct {
	Type                 string               `json:"type"`
	Description          string               `json:"description,omitempty"`
	Enum                 []string             `json:"enum,omitempty"`
	Items                *Property            `json:"items,omitempty"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	AdditionalProperties *Property            `json:"additionalProperties,omitempty"`
	Required             []string             `json:"required,omitempty"`
}

// ExecResult is the outcome of one tool execution. Content is the text
// returned to the caller; tools report operation failures as content, not
// as Go errors, so the protocol layer treats them uniformly.
type ExecResult struct {
	Content string `json:"content"`
}
