package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"hello-mcp-go/internal/tools"
)

// Tool execution statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed" // the tool ran and reported a failure in its result
	StatusError   = "error"
)

// ToolRegistryWrapper wraps a tool registry to add telemetry
type ToolRegistryWrapper struct {
	*tools.Registry
	metrics *Metrics
}

// NewToolRegistryWrapper creates a new telemetry-aware tool registry wrapper
func NewToolRegistryWrapper(registry *tools.Registry, metrics *Metrics) *ToolRegistryWrapper {
	return &ToolRegistryWrapper{
		Registry: registry,
		metrics:  metrics,
	}
}

// Call wraps the original Call to add telemetry
func (w *ToolRegistryWrapper) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	start := time.Now()

	result, err := w.Registry.Call(ctx, name, args)

	status := StatusSuccess
	if err != nil {
		status = StatusError
	} else if f, ok := result.(tools.Failer); ok && f.Failed() {
		status = StatusFailed
	}

	w.metrics.RecordToolExecution(name, status, time.Since(start))

	return result, err
}
