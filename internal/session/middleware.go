package session

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"
)

// HeaderName carries the session ID on MCP HTTP requests.
const HeaderName = "Mcp-Session-Id"

// SessionMiddleware validates the session header when one is sent.
// Requests without the header pass through with no session in context;
// whether a session is required is up to the handler.
type SessionMiddleware struct {
	manager SessionManager
	logger  zerolog.Logger
}

// NewSessionMiddleware creates a new session middleware
func NewSessionMiddleware(manager SessionManager, logger zerolog.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		manager: manager,
		logger:  logger.With().Str("component", "session_middleware").Logger(),
	}
}

type sessionContextKey struct{}

// Handler returns the HTTP middleware handler function
func (m *SessionMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(HeaderName)
			if sessionID == "" || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			session, err := m.manager.ValidateSession(r.Context(), sessionID)
			if err != nil {
				m.logger.Debug().
					Err(err).
					Str("session_id", sessionID).
					Str("path", r.URL.Path).
					Msg("Session validation failed")

				// Unknown or expired sessions get 404 so clients re-initialize.
				status := http.StatusNotFound
				code := Code(err)
				switch code {
				case ErrSessionInvalid:
					status = http.StatusBadRequest
				case ErrSessionNotFound, ErrSessionExpired:
				default:
					status = http.StatusInternalServerError
				}

				render.Status(r, status)
				render.JSON(w, r, map[string]any{
					"error": map[string]any{
						"message":    err.Error(),
						"code":       code,
						"session_id": sessionID,
					},
				})
				return
			}

			if err := m.manager.RefreshSession(r.Context(), sessionID); err != nil {
				m.logger.Warn().
					Err(err).
					Str("session_id", sessionID).
					Msg("Failed to refresh session")
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// FromContext retrieves the session stored by the middleware
func FromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(*Session)
	return session, ok && session != nil
}
