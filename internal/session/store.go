package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// MemoryStore implements SessionStore using in-memory storage
type MemoryStore struct {
	sessions map[string]Session
	mutex    sync.RWMutex
	logger   zerolog.Logger
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore(logger zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		logger:   logger.With().Str("component", "memory_store").Logger(),
	}
}

// Set stores a copy of session
func (s *MemoryStore) Set(ctx context.Context, session *Session) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.sessions[session.ID] = *session
	return nil
}

// Get returns a copy of the stored session
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, newNotFoundError(sessionID)
	}
	return &session, nil
}

// Delete removes a session
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return newNotFoundError(sessionID)
	}

	delete(s.sessions, sessionID)
	return nil
}

// List returns copies of all stored sessions
func (s *MemoryStore) List(ctx context.Context) ([]*Session, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		session := session
		sessions = append(sessions, &session)
	}
	return sessions, nil
}

// Type names the store in stats output
func (s *MemoryStore) Type() string {
	return "memory"
}

// Close drops every session
func (s *MemoryStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	count := len(s.sessions)
	s.sessions = make(map[string]Session)

	s.logger.Debug().
		Int("cleared_sessions", count).
		Msg("Memory store closed and cleared")

	return nil
}
