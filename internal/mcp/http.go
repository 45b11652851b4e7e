package mcp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"hello-mcp-go/internal/jsonrpc"
	"hello-mcp-go/internal/session"
)

// TransportHTTP labels messages received over HTTP.
const TransportHTTP = "http"

// HTTPHandler serves MCP over HTTP: one JSON-RPC message per POST.
// initialize opens a session whose ID is returned in the Mcp-Session-Id
// header; DELETE ends it. Session validation is done by
// session.SessionMiddleware, which must wrap this handler.
type HTTPHandler struct {
	handler        *Handler
	sessions       session.SessionManager
	requireSession bool
	logger         zerolog.Logger
}

// NewHTTPHandler creates the HTTP transport for handler.
func NewHTTPHandler(handler *Handler, sessions session.SessionManager, requireSession bool, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		handler:        handler,
		sessions:       sessions,
		requireSession: requireSession,
		logger:         logger.With().Str("component", "mcp_http").Logger(),
	}
}

// ServeHTTP implements http.Handler.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.post(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) post(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageSize))
	if err != nil {
		h.writeError(w, r, http.StatusRequestEntityTooLarge, jsonrpc.NewError(jsonrpc.InvalidRequest, "could not read request body", nil))
		return
	}
	defer r.Body.Close()

	msg, rpcErr := Parse(body)
	if rpcErr != nil {
		h.writeError(w, r, http.StatusBadRequest, rpcErr)
		return
	}

	req, isRequest := msg.(*jsonrpc.Request)
	initializing := isRequest && req.Method == MethodInitialize

	sess, hasSession := session.FromContext(r.Context())
	if h.requireSession && !hasSession && !initializing {
		h.writeError(w, r, http.StatusBadRequest, jsonrpc.NewError(jsonrpc.InvalidRequest,
			fmt.Sprintf("Missing %s header", session.HeaderName), nil))
		return
	}

	resp := h.handler.Handle(r.Context(), TransportHTTP, msg)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if initializing && resp.Error == nil {
		params, _ := ParseInitializeParams(req.Params)
		sess, err = h.sessions.CreateSession(r.Context(), session.ClientInfo{
			RemoteAddr:      r.RemoteAddr,
			UserAgent:       r.UserAgent(),
			Name:            params.ClientInfo.Name,
			Version:         params.ClientInfo.Version,
			ProtocolVersion: params.ProtocolVersion,
		})
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to create session")
			h.writeError(w, r, http.StatusInternalServerError, jsonrpc.NewError(jsonrpc.InternalError, "Failed to create session", nil))
			return
		}
		hasSession = true
	}
	if hasSession {
		w.Header().Set(session.HeaderName, sess.ID)
	}

	h.writeResponse(w, r, http.StatusOK, resp)
}

func (h *HTTPHandler) delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, fmt.Sprintf("missing %s header", session.HeaderName), http.StatusBadRequest)
		return
	}

	if err := h.sessions.DeleteSession(r.Context(), sess.ID); err != nil {
		h.logger.Debug().Err(err).Str("session_id", sess.ID).Msg("Session deletion failed")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, status int, rpcErr *jsonrpc.Error) {
	h.writeResponse(w, r, status, jsonrpc.NewErrorResponse(nil, rpcErr))
}

// writeResponse sends resp as JSON, or as a single SSE message event when
// the client accepts only text/event-stream.
func (h *HTTPHandler) writeResponse(w http.ResponseWriter, r *http.Request, status int, resp *jsonrpc.Response) {
	if !wantsEventStream(r.Header.Get("Accept")) {
		render.Status(r, status)
		render.JSON(w, r, resp)
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(status)
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func wantsEventStream(accept string) bool {
	if accept == "" {
		return false
	}
	acceptsJSON, acceptsSSE := false, false
	for _, part := range strings.Split(accept, ",") {
		mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch mediaType {
		case "application/json", "application/*", "*/*":
			acceptsJSON = true
		case "text/event-stream":
			acceptsSSE = true
		}
	}
	return acceptsSSE && !acceptsJSON
}
