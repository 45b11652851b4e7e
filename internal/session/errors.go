package session

import (
	"errors"
	"fmt"
)

// SessionError represents a session-related error
type SessionError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Error codes for session operations
const (
	ErrSessionNotFound   = "SESSION_NOT_FOUND"
	ErrSessionExpired    = "SESSION_EXPIRED"
	ErrSessionInvalid    = "SESSION_INVALID"
	ErrSessionGeneration = "SESSION_GENERATION_FAILED"
	ErrSessionStorage    = "SESSION_STORAGE_ERROR"
)

func newNotFoundError(sessionID string) *SessionError {
	return &SessionError{Code: ErrSessionNotFound, Message: fmt.Sprintf("session not found: %s", sessionID)}
}

func newExpiredError(sessionID string) *SessionError {
	return &SessionError{Code: ErrSessionExpired, Message: fmt.Sprintf("session expired: %s", sessionID)}
}

func newInvalidError(reason string) *SessionError {
	return &SessionError{Code: ErrSessionInvalid, Message: fmt.Sprintf("session invalid: %s", reason)}
}

func newStorageError(operation string, cause error) *SessionError {
	return &SessionError{
		Code:    ErrSessionStorage,
		Message: fmt.Sprintf("session storage error during %s", operation),
		Cause:   cause,
	}
}

// Code returns the SessionError code carried by err, or "UNKNOWN_ERROR".
func Code(err error) string {
	var sessErr *SessionError
	if errors.As(err, &sessErr) {
		return sessErr.Code
	}
	return "UNKNOWN_ERROR"
}
