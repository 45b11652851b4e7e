package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// DefaultTool is a base implementation of the Tool interface that can be embedded in other tools.
type DefaultTool struct {
	name        string
	description string
	schema      map[string]any
}

// NewDefaultTool creates a new DefaultTool with the given name, description
// and JSON schema for its arguments. A nil schema accepts any object.
func NewDefaultTool(name, description string, schema map[string]any) *DefaultTool {
	if schema == nil {
		schema = ObjectSchema(nil)
	}
	return &DefaultTool{
		name:        name,
		description: description,
		schema:      schema,
	}
}

// Name returns the name of the tool.
func (t *DefaultTool) Name() string {
	return t.name
}

// Call is the default implementation of the Tool interface.
// Tools should override this method with their specific implementation.
func (t *DefaultTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	return nil, fmt.Errorf("method not implemented for tool: %s", t.name)
}

// Definition returns the tool definition in MCP format.
func (t *DefaultTool) Definition() Definition {
	return Definition{
		Name:        t.name,
		Description: t.description,
		InputSchema: t.schema,
		Annotations: &Annotations{
			Title:          fmt.Sprintf("%s Tool", t.name),
			ReadOnlyHint:   true,
			IdempotentHint: true,
		},
	}
}

// ObjectSchema builds an object schema from property schemas.
func ObjectSchema(properties map[string]any, required ...string) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
