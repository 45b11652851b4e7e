package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestMiddleware(t *testing.T) (http.Handler, *DefaultSessionManager, *string) {
	t.Helper()
	manager, _ := newTestManager(t, time.Hour)
	seen := new(string)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session, ok := FromContext(r.Context()); ok {
			*seen = session.ID
		}
		w.WriteHeader(http.StatusOK)
	})
	return NewSessionMiddleware(manager, zerolog.Nop()).Handler()(next), manager, seen
}

func TestSessionMiddleware_NoHeader(t *testing.T) {
	handler, _, seen := newTestMiddleware(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mcp", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if *seen != "" {
		t.Errorf("Expected no session in context, got %s", *seen)
	}
}

func TestSessionMiddleware_ValidSession(t *testing.T) {
	handler, manager, seen := newTestMiddleware(t)
	session, _ := manager.CreateSession(context.Background(), ClientInfo{})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set(HeaderName, session.ID)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if *seen != session.ID {
		t.Errorf("Expected session %s in context, got %q", session.ID, *seen)
	}
}

func TestSessionMiddleware_Rejections(t *testing.T) {
	handler, _, _ := newTestMiddleware(t)
	unknown, _ := NewSessionIDGenerator().Generate()

	tests := []struct {
		name      string
		sessionID string
		status    int
	}{
		{"malformed", "not-a-session", http.StatusBadRequest},
		{"unknown", unknown, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			req.Header.Set(HeaderName, tt.sessionID)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected JSON error body, got content type %q", ct)
			}
		})
	}
}

func TestSessionMiddleware_OptionsSkipsValidation(t *testing.T) {
	handler, _, _ := newTestMiddleware(t)

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set(HeaderName, "not-a-session")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}
