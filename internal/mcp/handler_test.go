package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hello-mcp-go/internal/greeting"
	"hello-mcp-go/internal/jsonrpc"
	"hello-mcp-go/internal/telemetry"
	"hello-mcp-go/internal/tools"
	"hello-mcp-go/internal/tools/greeter"
)

func newTestHandler(t *testing.T) (*Handler, *telemetry.Metrics) {
	t.Helper()
	registry := tools.NewRegistry()
	require.NoError(t, greeter.Register(registry, greeting.NewService(greeting.DefaultConfig())))
	metrics := telemetry.NewMetrics()
	h := NewHandler(telemetry.NewToolRegistryWrapper(registry, metrics), HandlerConfig{
		ServerInfo: Implementation{Name: "hello-mcp", Version: "test"},
		Metrics:    metrics,
	}, zerolog.Nop())
	return h, metrics
}

// roundTrip sends raw and decodes the response with a generic result.
func roundTrip(t *testing.T, h *Handler, raw string) map[string]any {
	t.Helper()
	resp := h.HandleMessage(context.Background(), TransportStdio, []byte(raw))
	require.NotNil(t, resp)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func structured(t *testing.T, out map[string]any) map[string]any {
	t.Helper()
	result, ok := out["result"].(map[string]any)
	require.True(t, ok, "no result in %v", out)
	sc, ok := result["structuredContent"].(map[string]any)
	require.True(t, ok, "no structuredContent in %v", result)
	return sc
}

func TestHandler_Initialize(t *testing.T) {
	h, _ := newTestHandler(t)

	out := roundTrip(t, h, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"c","version":"1"}}}`)

	result := out["result"].(map[string]any)
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	assert.Equal(t, map[string]any{"name": "hello-mcp", "version": "test"}, result["serverInfo"])
	assert.Contains(t, result["capabilities"], "tools")
	assert.Equal(t, float64(1), out["id"])
}

func TestHandler_InitializeUnknownVersion(t *testing.T) {
	h, _ := newTestHandler(t)

	out := roundTrip(t, h, `{"jsonrpc":"2.0","id":"a","method":"initialize","params":{"protocolVersion":"1999-01-01"}}`)

	assert.Equal(t, LatestProtocolVersion, out["result"].(map[string]any)["protocolVersion"])
}

func TestHandler_NotificationHasNoResponse(t *testing.T) {
	h, metrics := newTestHandler(t)

	resp := h.HandleMessage(context.Background(), TransportStdio, []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))

	assert.Nil(t, resp)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MCPMessagesTotal.WithLabelValues(TransportStdio, MethodInitialized)))
}

func TestHandler_Ping(t *testing.T) {
	h, _ := newTestHandler(t)

	out := roundTrip(t, h, `{"jsonrpc":"2.0","id":7,"method":"ping"}`)

	assert.Equal(t, map[string]any{}, out["result"])
}

func TestHandler_ToolsList(t *testing.T) {
	h, _ := newTestHandler(t)

	out := roundTrip(t, h, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	list := out["result"].(map[string]any)["tools"].([]any)
	require.Len(t, list, 3)
	var names []string
	for _, item := range list {
		def := item.(map[string]any)
		names = append(names, def["name"].(string))
		assert.Contains(t, def, "inputSchema")
	}
	assert.Equal(t, []string{"custom_greeting", "hello", "list_languages"}, names)
}

func TestHandler_CallHello(t *testing.T) {
	h, metrics := newTestHandler(t)

	out := roundTrip(t, h, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"hello","arguments":{"name":"David","uppercase":true}}}`)

	assert.Equal(t, map[string]any{
		"greeting":  "HELLO, DAVID!",
		"language":  "en",
		"name":      "David",
		"uppercase": true,
	}, structured(t, out))

	result := out["result"].(map[string]any)
	assert.NotContains(t, result, "isError")
	content := result["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "text", content["type"])
	assert.JSONEq(t, `{"greeting":"HELLO, DAVID!","language":"en","name":"David","uppercase":true}`, content["text"].(string))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MCPToolExecutions.WithLabelValues("hello", telemetry.StatusSuccess)))
}

func TestHandler_CallListLanguages(t *testing.T) {
	h, _ := newTestHandler(t)

	first := structured(t, roundTrip(t, h, `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"list_languages"}}`))
	second := structured(t, roundTrip(t, h, `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"list_languages","arguments":{}}}`))

	assert.Equal(t, float64(9), first["count"])
	assert.Equal(t, first, second)
}

func TestHandler_CallCustomGreeting(t *testing.T) {
	h, _ := newTestHandler(t)

	out := roundTrip(t, h, `{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"custom_greeting","arguments":{"template":"Hi {name}, age {age}","name":"Sam","variables":{"age":"5"}}}}`)
	assert.Equal(t, map[string]any{
		"greeting":      "Hi Sam, age 5",
		"template":      "Hi {name}, age {age}",
		"substitutions": map[string]any{"name": "Sam", "age": "5"},
	}, structured(t, out))

	out = roundTrip(t, h, `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"custom_greeting","arguments":{"template":"Hi {missing}"}}}`)
	result := out["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	sc := structured(t, out)
	assert.Contains(t, sc["error"], "missing")
	assert.Contains(t, sc["available_variables"], "name")
}

func TestHandler_Errors(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		raw  string
		code jsonrpc.ErrorCode
	}{
		{"parse error", `{"jsonrpc":`, jsonrpc.ParseError},
		{"batch", `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`, jsonrpc.InvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, jsonrpc.MethodNotFound},
		{"unknown tool", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"farewell"}}`, jsonrpc.InvalidParams},
		{"missing tool name", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`, jsonrpc.InvalidParams},
		{"bad arguments", `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"hello","arguments":{"uppercase":"yes"}}}`, jsonrpc.InvalidParams},
		{"bad initialize params", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":[1]}`, jsonrpc.InvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.HandleMessage(context.Background(), TransportStdio, []byte(tt.raw))
			require.NotNil(t, resp)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

type panickyCaller struct{}

func (panickyCaller) Definitions() []tools.Definition { return nil }

func (panickyCaller) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	panic("boom")
}

func TestHandler_RecoversFromPanics(t *testing.T) {
	h := NewHandler(panickyCaller{}, HandlerConfig{}, zerolog.Nop())

	resp := h.HandleMessage(context.Background(), TransportStdio, []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"x"}}`))

	require.NotNil(t, resp.Error)
	assert.Equal(t, jsonrpc.InternalError, resp.Error.Code)
}
