package session

import (
	"context"
	"time"
)

// Session is an MCP client session established by initialize.
type Session struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	LastAccess time.Time  `json:"last_access"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ClientInfo ClientInfo `json:"client_info"`
}

// ClientInfo describes the client that opened the session.
type ClientInfo struct {
	RemoteAddr      string `json:"remote_addr"`
	UserAgent       string `json:"user_agent"`
	Name            string `json:"name,omitempty"`
	Version         string `json:"version,omitempty"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Refresh updates the last access time and extends expiration
func (s *Session) Refresh(timeout time.Duration) {
	now := time.Now()
	s.LastAccess = now
	s.ExpiresAt = now.Add(timeout)
}

// Stats summarizes the sessions held by a manager.
type Stats struct {
	Total          int    `json:"total_sessions"`
	Active         int    `json:"active_sessions"`
	Expired        int    `json:"expired_sessions"`
	SessionTimeout string `json:"session_timeout"`
	StoreType      string `json:"store_type"`
}

// SessionManager defines the interface for session management operations
type SessionManager interface {
	// CreateSession generates a new session ID and stores it
	CreateSession(ctx context.Context, clientInfo ClientInfo) (*Session, error)

	// ValidateSession checks if a session ID is valid and active
	ValidateSession(ctx context.Context, sessionID string) (*Session, error)

	// RefreshSession updates the last activity timestamp
	RefreshSession(ctx context.Context, sessionID string) error

	// DeleteSession removes a session from the store
	DeleteSession(ctx context.Context, sessionID string) error

	// CleanupExpiredSessions removes all expired sessions
	CleanupExpiredSessions(ctx context.Context) (int, error)

	// GetSessionStats returns statistics about sessions
	GetSessionStats(ctx context.Context) (Stats, error)
}

// SessionStore defines the interface for session storage operations.
// Implementations hand out copies; callers never share a *Session with the store.
type SessionStore interface {
	Set(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]*Session, error)
	Type() string
	Close() error
}
