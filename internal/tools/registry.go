package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Error codes returned by Registry.Call.
const (
	ErrToolNotFound     = "tool_not_found"
	ErrInvalidArguments = "invalid_arguments"
)

type entry struct {
	tool   Tool
	schema *jsonschema.Schema
}

// Registry manages the collection of available tools.
type Registry struct {
	tools map[string]entry
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]entry),
	}
}

// Register adds a new tool to the registry. The tool's input schema is
// compiled once here and used to validate every call.
func (r *Registry) Register(tool Tool) error {
	schema, err := compileSchema(tool.Definition())
	if err != nil {
		return fmt.Errorf("register tool %s: %w", tool.Name(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools[tool.Name()] = entry{tool: tool, schema: schema}
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.tools[name]
	return e.tool, exists
}

// List returns all registered tools.
func (r *Registry) List() map[string]Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make(map[string]Tool, len(r.tools))
	for name, e := range r.tools {
		tools[name] = e.tool
	}
	return tools
}

// Definitions returns the definitions of all tools sorted by name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, e := range r.tools {
		defs = append(defs, e.tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Call validates args against the tool's schema and executes it.
func (r *Registry) Call(ctx context.Context, toolName string, args json.RawMessage) (any, error) {
	r.mu.RLock()
	e, exists := r.tools[toolName]
	r.mu.RUnlock()

	if !exists {
		return nil, &Error{Code: ErrToolNotFound, Message: fmt.Sprintf("Tool not found: %s", toolName)}
	}

	if len(bytes.TrimSpace(args)) == 0 || bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		args = json.RawMessage("{}")
	}

	var doc any
	if err := json.Unmarshal(args, &doc); err != nil {
		return nil, &Error{Code: ErrInvalidArguments, Message: fmt.Sprintf("arguments are not valid JSON: %v", err)}
	}
	if err := e.schema.Validate(doc); err != nil {
		return nil, &Error{Code: ErrInvalidArguments, Message: err.Error()}
	}

	return e.tool.Call(ctx, args)
}

func compileSchema(def Definition) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(def.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal input schema: %w", err)
	}

	url := fmt.Sprintf("mem://tools/%s.json", def.Name)
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return compiler.Compile(url)
}

// Error represents a tool execution error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}
