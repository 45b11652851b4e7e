// Package greeter exposes the greeting operations as MCP tools.
package greeter

import (
	"context"
	"encoding/json"
	"fmt"

	"hello-mcp-go/internal/greeting"
	"hello-mcp-go/internal/tools"
)

// HelloTool implements the "hello" tool.
type HelloTool struct {
	*tools.DefaultTool
	svc *greeting.Service
}

// NewHelloTool creates the hello tool.
func NewHelloTool(svc *greeting.Service) *HelloTool {
	schema := tools.ObjectSchema(map[string]any{
		"name": map[string]any{
			"type":        []string{"string", "null"},
			"description": "The name to greet (defaults to \"World\")",
		},
		"language": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Language code for the greeting (e.g. 'en', 'es', 'fr')",
		},
		"uppercase": map[string]any{
			"type":        "boolean",
			"description": "Whether to return the greeting in uppercase",
			"default":     false,
		},
	})
	return &HelloTool{
		DefaultTool: tools.NewDefaultTool("hello", "Generate a hello world greeting.", schema),
		svc:         svc,
	}
}

// Call executes the hello tool.
func (t *HelloTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	var req greeting.GreetingRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return t.svc.Hello(req), nil
}

// ListLanguagesTool implements the "list_languages" tool.
type ListLanguagesTool struct {
	*tools.DefaultTool
	svc *greeting.Service
}

// NewListLanguagesTool creates the list_languages tool.
func NewListLanguagesTool(svc *greeting.Service) *ListLanguagesTool {
	return &ListLanguagesTool{
		DefaultTool: tools.NewDefaultTool("list_languages", "List all available languages for greetings.", nil),
		svc:         svc,
	}
}

// Call executes the list_languages tool. Arguments are ignored.
func (t *ListLanguagesTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	return t.svc.ListLanguages(), nil
}

// CustomGreetingTool implements the "custom_greeting" tool.
type CustomGreetingTool struct {
	*tools.DefaultTool
	svc *greeting.Service
}

// NewCustomGreetingTool creates the custom_greeting tool.
func NewCustomGreetingTool(svc *greeting.Service) *CustomGreetingTool {
	schema := tools.ObjectSchema(map[string]any{
		"template": map[string]any{
			"type":        "string",
			"description": "A template string with {name} and other {variables}",
		},
		"name": map[string]any{
			"type":        []string{"string", "null"},
			"description": "The name to use in the template",
		},
		"variables": map[string]any{
			"type":                 []string{"object", "null"},
			"description":          "Additional variables to substitute in the template",
			"additionalProperties": map[string]any{"type": "string"},
		},
	}, "template")
	return &CustomGreetingTool{
		DefaultTool: tools.NewDefaultTool("custom_greeting", "Create a custom greeting using a template.", schema),
		svc:         svc,
	}
}

// Call executes the custom_greeting tool. Template errors are part of the
// returned response, not the error value.
func (t *CustomGreetingTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	var req greeting.TemplateRequest
	if err := json.Unmarshal(args, &req); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return t.svc.CustomGreeting(req), nil
}

// All returns every greeting tool bound to svc.
func All(svc *greeting.Service) []tools.Tool {
	return []tools.Tool{
		NewHelloTool(svc),
		NewListLanguagesTool(svc),
		NewCustomGreetingTool(svc),
	}
}

// Register adds every greeting tool to registry.
func Register(registry *tools.Registry, svc *greeting.Service) error {
	for _, tool := range All(svc) {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}
