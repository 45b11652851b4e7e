package telemetry

import (
	"context"
	"errors"
	"time"

	"hello-mcp-go/internal/session"
)

// SessionManagerWrapper wraps a session manager to add telemetry
type SessionManagerWrapper struct {
	session.SessionManager
	metrics *Metrics
}

// NewSessionManagerWrapper creates a new telemetry-aware session manager wrapper
func NewSessionManagerWrapper(manager session.SessionManager, metrics *Metrics) *SessionManagerWrapper {
	return &SessionManagerWrapper{
		SessionManager: manager,
		metrics:        metrics,
	}
}

// CreateSession wraps the original CreateSession to add telemetry
func (w *SessionManagerWrapper) CreateSession(ctx context.Context, clientInfo session.ClientInfo) (*session.Session, error) {
	sess, err := w.SessionManager.CreateSession(ctx, clientInfo)
	if err == nil {
		w.metrics.RecordSessionCreated()
	}
	return sess, err
}

// ValidateSession counts sessions found expired on access; the manager
// removes them as a side effect.
func (w *SessionManagerWrapper) ValidateSession(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := w.SessionManager.ValidateSession(ctx, sessionID)
	var sessErr *session.SessionError
	if errors.As(err, &sessErr) && sessErr.Code == session.ErrSessionExpired {
		w.metrics.RecordSessionsExpired(1)
	}
	return sess, err
}

// DeleteSession wraps the original DeleteSession to add telemetry
func (w *SessionManagerWrapper) DeleteSession(ctx context.Context, sessionID string) error {
	// Get session to calculate duration
	sess, getErr := w.SessionManager.ValidateSession(ctx, sessionID)

	err := w.SessionManager.DeleteSession(ctx, sessionID)
	if err == nil && getErr == nil {
		w.metrics.RecordSessionDeleted(time.Since(sess.CreatedAt))
	}
	return err
}

// CleanupExpiredSessions wraps the original cleanup to count expirations
func (w *SessionManagerWrapper) CleanupExpiredSessions(ctx context.Context) (int, error) {
	count, err := w.SessionManager.CleanupExpiredSessions(ctx)
	if count > 0 {
		w.metrics.RecordSessionsExpired(count)
	}
	return count, err
}
