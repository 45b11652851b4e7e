package session

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestManager(t *testing.T, timeout time.Duration) (*DefaultSessionManager, *MemoryStore) {
	t.Helper()
	logger := zerolog.Nop()
	store := NewMemoryStore(logger)
	t.Cleanup(func() { store.Close() })
	return NewDefaultSessionManager(store, ManagerConfig{SessionTimeout: timeout}, logger), store
}

func TestDefaultSessionManager_CreateAndValidate(t *testing.T) {
	manager, _ := newTestManager(t, time.Hour)
	ctx := context.Background()
	clientInfo := ClientInfo{RemoteAddr: "127.0.0.1:12345", Name: "test-client", Version: "1.0"}

	session, err := manager.CreateSession(ctx, clientInfo)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if session.ClientInfo != clientInfo {
		t.Errorf("Expected client info %+v, got %+v", clientInfo, session.ClientInfo)
	}

	validated, err := manager.ValidateSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("Failed to validate session: %v", err)
	}
	if validated.ID != session.ID {
		t.Errorf("Validated session ID mismatch: expected %s, got %s", session.ID, validated.ID)
	}
}

func TestDefaultSessionManager_ValidateErrors(t *testing.T) {
	manager, _ := newTestManager(t, time.Hour)
	ctx := context.Background()

	if _, err := manager.ValidateSession(ctx, "invalid-session-id"); Code(err) != ErrSessionInvalid {
		t.Errorf("Expected %s, got %v", ErrSessionInvalid, err)
	}

	unknown, _ := NewSessionIDGenerator().Generate()
	if _, err := manager.ValidateSession(ctx, unknown); Code(err) != ErrSessionNotFound {
		t.Errorf("Expected %s, got %v", ErrSessionNotFound, err)
	}
}

func TestDefaultSessionManager_ValidateExpired(t *testing.T) {
	manager, store := newTestManager(t, time.Millisecond)
	ctx := context.Background()

	session, err := manager.CreateSession(ctx, ClientInfo{})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := manager.ValidateSession(ctx, session.ID); Code(err) != ErrSessionExpired {
		t.Fatalf("Expected %s, got %v", ErrSessionExpired, err)
	}
	if _, err := store.Get(ctx, session.ID); err == nil {
		t.Error("Expired session should have been removed")
	}
}

func TestDefaultSessionManager_Refresh(t *testing.T) {
	manager, store := newTestManager(t, time.Hour)
	ctx := context.Background()

	session, _ := manager.CreateSession(ctx, ClientInfo{})
	original := session.ExpiresAt

	time.Sleep(5 * time.Millisecond)
	if err := manager.RefreshSession(ctx, session.ID); err != nil {
		t.Fatalf("Failed to refresh session: %v", err)
	}

	stored, _ := store.Get(ctx, session.ID)
	if !stored.ExpiresAt.After(original) {
		t.Errorf("Expected expiry after %v, got %v", original, stored.ExpiresAt)
	}
}

func TestDefaultSessionManager_CleanupAndStats(t *testing.T) {
	manager, store := newTestManager(t, time.Hour)
	ctx := context.Background()

	live, _ := manager.CreateSession(ctx, ClientInfo{})
	store.Set(ctx, &Session{ID: "stale-1", ExpiresAt: time.Now().Add(-time.Minute)})
	store.Set(ctx, &Session{ID: "stale-2", ExpiresAt: time.Now().Add(-time.Minute)})

	stats, err := manager.GetSessionStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Total != 3 || stats.Active != 1 || stats.Expired != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.StoreType != "memory" || stats.SessionTimeout != "1h0m0s" {
		t.Errorf("Unexpected stats metadata: %+v", stats)
	}

	deleted, err := manager.CleanupExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted sessions, got %d", deleted)
	}
	if _, err := manager.ValidateSession(ctx, live.ID); err != nil {
		t.Errorf("Live session should survive cleanup: %v", err)
	}

	if err := manager.DeleteSession(ctx, live.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if err := manager.DeleteSession(ctx, live.ID); Code(err) != ErrSessionNotFound {
		t.Errorf("Expected %s, got %v", ErrSessionNotFound, err)
	}
}
