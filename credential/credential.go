package credential

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("credential not found")
	// ErrDuplicateEmail is returned by Create when the email is already
	// registered. It is the loser's result in a concurrent-registration race.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrBackendUnavailable wraps storage transport failures.
	ErrBackendUnavailable = errors.New("credential backend unavailable")
)

// Credential is a stored login identity. Email is kept in the normalized
// (lowercased, trimmed) form chosen by the caller; the store treats it as an
// opaque unique key.
type Credential struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the persistence capability required by the Engine. Implementations
// must be safe for concurrent use.
type Store interface {
	// FindByEmail returns the record for email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*Credential, error)
	// FindByID returns the record for id, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*Credential, error)
	// Create inserts cred if and only if its email is unused, assigning
	// cred.ID and cred.CreatedAt when unset. On a duplicate email it returns
	// ErrDuplicateEmail and stores nothing.
	Create(ctx context.Context, cred *Credential) error
	// UpdatePasswordHash replaces the stored hash for id.
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	// Delete removes the record for id, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}
