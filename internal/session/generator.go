package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// SessionIDLength is the length of the random part in bytes
	SessionIDLength = 32
	// SessionIDPrefix is the prefix for session IDs
	SessionIDPrefix = "sess"
)

var (
	timestampPattern = regexp.MustCompile(`^\d+$`)
	randomPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// SessionIDGenerator produces IDs of the form sess.<unix>.<base64url>.
type SessionIDGenerator struct{}

// NewSessionIDGenerator creates a new session ID generator
func NewSessionIDGenerator() *SessionIDGenerator {
	return &SessionIDGenerator{}
}

// Generate creates a new cryptographically secure session ID
func (g *SessionIDGenerator) Generate() (string, error) {
	randomBytes := make([]byte, SessionIDLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", &SessionError{Code: ErrSessionGeneration, Message: "failed to generate session ID", Cause: err}
	}

	// Dots separate the parts since they never appear in base64url.
	return fmt.Sprintf("%s.%d.%s",
		SessionIDPrefix,
		time.Now().Unix(),
		base64.RawURLEncoding.EncodeToString(randomBytes),
	), nil
}

// Validate checks if a session ID has the correct format
func (g *SessionIDGenerator) Validate(sessionID string) error {
	if sessionID == "" {
		return newInvalidError("empty session ID")
	}

	parts := strings.Split(sessionID, ".")
	if len(parts) != 3 {
		return newInvalidError("invalid session ID format")
	}

	if parts[0] != SessionIDPrefix {
		return newInvalidError("invalid session ID prefix")
	}

	if !timestampPattern.MatchString(parts[1]) {
		return newInvalidError("invalid timestamp in session ID")
	}

	if !randomPattern.MatchString(parts[2]) {
		return newInvalidError("invalid characters in session ID")
	}

	if len(parts[2]) < base64.RawURLEncoding.EncodedLen(SessionIDLength) {
		return newInvalidError("session ID random part too short")
	}

	return nil
}
