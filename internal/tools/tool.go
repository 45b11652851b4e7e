package tools

import (
	"context"
	"encoding/json"
)

// Tool is the interface that all tools must implement.
type Tool interface {
	// Name returns the name of the tool.
	Name() string

	// Definition describes the tool for tools/list.
	Definition() Definition

	// Call executes the tool with the given JSON arguments. The returned
	// value is serialized by the caller.
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// Definition is the MCP description of a tool.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Annotations *Annotations   `json:"annotations,omitempty"`
}

// Annotations are optional hints about a tool's behavior.
type Annotations struct {
	Title          string `json:"title,omitempty"`
	ReadOnlyHint   bool   `json:"readOnlyHint,omitempty"`
	IdempotentHint bool   `json:"idempotentHint,omitempty"`
	OpenWorldHint  bool   `json:"openWorldHint"`
}

// Failer is implemented by results that can describe a failed call
// without returning a Go error.
type Failer interface {
	Failed() bool
}
