package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"hello-mcp-go/internal/jsonrpc"
	"hello-mcp-go/internal/telemetry"
	"hello-mcp-go/internal/tools"
)

// ToolCaller lists and executes tools.
type ToolCaller interface {
	Definitions() []tools.Definition
	Call(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// Handler dispatches MCP JSON-RPC messages. It holds no per-connection
// state and is safe for concurrent use.
type Handler struct {
	tools        ToolCaller
	info         Implementation
	instructions string
	metrics      *telemetry.Metrics
	logger       zerolog.Logger
}

// HandlerConfig configures a Handler. Metrics may be nil.
type HandlerConfig struct {
	ServerInfo   Implementation
	Instructions string
	Metrics      *telemetry.Metrics
}

// NewHandler creates a new MCP handler.
func NewHandler(caller ToolCaller, cfg HandlerConfig, logger zerolog.Logger) *Handler {
	return &Handler{
		tools:        caller,
		info:         cfg.ServerInfo,
		instructions: cfg.Instructions,
		metrics:      cfg.Metrics,
		logger:       logger.With().Str("component", "mcp_handler").Logger(),
	}
}

// HandleMessage parses and handles one raw message. A nil response means
// nothing should be sent back.
func (h *Handler) HandleMessage(ctx context.Context, transport string, data []byte) *jsonrpc.Response {
	msg, err := Parse(data)
	if err != nil {
		return jsonrpc.NewErrorResponse(nil, err)
	}
	return h.Handle(ctx, transport, msg)
}

// Parse decodes one JSON-RPC message. Batches are rejected.
func Parse(data []byte) (any, *jsonrpc.Error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return nil, jsonrpc.NewError(jsonrpc.InvalidRequest, "Batch requests are not supported", nil)
	}

	msg, err := jsonrpc.ParseMessage(data)
	if err != nil {
		var rpcErr *jsonrpc.Error
		if errors.As(err, &rpcErr) {
			return nil, rpcErr
		}
		return nil, jsonrpc.NewError(jsonrpc.ParseError, "Parse error", nil)
	}
	return msg, nil
}

// Handle processes a message returned by Parse.
func (h *Handler) Handle(ctx context.Context, transport string, msg any) *jsonrpc.Response {
	switch m := msg.(type) {
	case *jsonrpc.Request:
		h.record(transport, m.Method)
		return h.handleRequest(ctx, m)
	case *jsonrpc.Notification:
		h.record(transport, m.Method)
		h.logger.Debug().Str("method", m.Method).Msg("Notification received")
		return nil
	case *jsonrpc.Response:
		// The server sends no requests, so client responses are dropped.
		h.logger.Debug().Interface("id", m.ID).Msg("Ignoring response from client")
		return nil
	default:
		return jsonrpc.NewErrorResponse(nil, jsonrpc.NewError(jsonrpc.InvalidRequest, "Invalid message", nil))
	}
}

func (h *Handler) handleRequest(ctx context.Context, req *jsonrpc.Request) (resp *jsonrpc.Response) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().
				Interface("panic", r).
				Str("method", req.Method).
				Msg("Recovered from panic while handling request")
			resp = jsonrpc.NewErrorResponse(req.ID, jsonrpc.NewError(jsonrpc.InternalError, "Internal error", nil))
		}
	}()

	var (
		result any
		rpcErr *jsonrpc.Error
	)

	switch req.Method {
	case MethodInitialize:
		result, rpcErr = h.initialize(req.Params)
	case MethodPing:
		result = struct{}{}
	case MethodToolsList:
		result = ListToolsResult{Tools: h.tools.Definitions()}
	case MethodToolsCall:
		result, rpcErr = h.callTool(ctx, req.Params)
	default:
		rpcErr = jsonrpc.NewError(jsonrpc.MethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}

	if rpcErr != nil {
		h.logger.Debug().
			Str("method", req.Method).
			Int("code", int(rpcErr.Code)).
			Str("error", rpcErr.Message).
			Msg("Request failed")
		return jsonrpc.NewErrorResponse(req.ID, rpcErr)
	}
	return jsonrpc.NewResult(req.ID, result)
}

func (h *Handler) initialize(raw json.RawMessage) (any, *jsonrpc.Error) {
	params, err := ParseInitializeParams(raw)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.InvalidParams, "Invalid initialize params", err.Error())
	}

	version := negotiateVersion(params.ProtocolVersion)
	h.logger.Info().
		Str("client", params.ClientInfo.Name).
		Str("client_version", params.ClientInfo.Version).
		Str("requested_version", params.ProtocolVersion).
		Str("protocol_version", version).
		Msg("Client initialized")

	return InitializeResult{
		ProtocolVersion: version,
		Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
		ServerInfo:      h.info,
		Instructions:    h.instructions,
	}, nil
}

// ParseInitializeParams decodes initialize params; empty params are allowed.
func ParseInitializeParams(raw json.RawMessage) (InitializeParams, error) {
	var params InitializeParams
	if len(raw) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return params, err
	}
	return params, nil
}

func (h *Handler) callTool(ctx context.Context, raw json.RawMessage) (any, *jsonrpc.Error) {
	var params CallToolParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, jsonrpc.NewError(jsonrpc.InvalidParams, "Invalid tools/call params", err.Error())
		}
	}
	if params.Name == "" {
		return nil, jsonrpc.NewError(jsonrpc.InvalidParams, "Tool name is required", nil)
	}

	result, err := h.tools.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		var toolErr *tools.Error
		if errors.As(err, &toolErr) {
			switch toolErr.Code {
			case tools.ErrToolNotFound:
				return nil, jsonrpc.NewError(jsonrpc.InvalidParams, fmt.Sprintf("Unknown tool: %s", params.Name), nil)
			case tools.ErrInvalidArguments:
				return nil, jsonrpc.NewError(jsonrpc.InvalidParams, "Invalid arguments", toolErr.Message)
			}
		}

		h.logger.Warn().Err(err).Str("tool", params.Name).Msg("Tool execution failed")
		return CallToolResult{
			Content: []Content{{Type: "text", Text: err.Error()}},
			IsError: true,
		}, nil
	}

	text, err := json.Marshal(result)
	if err != nil {
		return nil, jsonrpc.NewError(jsonrpc.InternalError, "Failed to encode tool result", err.Error())
	}

	failed := false
	if f, ok := result.(tools.Failer); ok {
		failed = f.Failed()
	}

	return CallToolResult{
		Content:           []Content{{Type: "text", Text: string(text)}},
		StructuredContent: json.RawMessage(text),
		IsError:           failed,
	}, nil
}

var knownMethods = map[string]bool{
	MethodInitialize:  true,
	MethodInitialized: true,
	MethodCancelled:   true,
	MethodPing:        true,
	MethodToolsList:   true,
	MethodToolsCall:   true,
}

func (h *Handler) record(transport, method string) {
	if h.metrics == nil {
		return
	}
	if !knownMethods[method] {
		method = "other"
	}
	h.metrics.RecordMessage(transport, method)
}
