package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a session does not exist or has expired.
// Callers cannot tell an expired session apart from an absent one.
var ErrNotFound = errors.New("session not found")

const idBytes = 32

// Session is the server-side login record referenced by access tokens.
// Timestamps are Unix seconds.
type Session struct {
	SessionID string
	UserID    string
	Email     string
	CreatedAt int64
	ExpiresAt int64
}

// Expired reports whether the session's expiry is at or before now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt <= now.Unix()
}

// Remaining returns the session lifetime left at now, clamped at zero.
func (s *Session) Remaining(now time.Time) time.Duration {
	d := time.Duration(s.ExpiresAt-now.Unix()) * time.Second
	if d < 0 {
		return 0
	}
	return d
}

// NewID returns a fresh unguessable session identifier: 32 bytes from
// crypto/rand, base64url-encoded without padding (43 characters).
func NewID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
