package credential

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and single-node deployments.
// A single mutex spans the email-uniqueness check and the insert, which is
// what makes Create an atomic insert-if-absent.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Credential
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*Credential),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) FindByEmail(_ context.Context, email string) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cred, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *cred
	return &cp, nil
}

func (m *MemoryStore) Create(_ context.Context, cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byEmail[cred.Email]; taken {
		return ErrDuplicateEmail
	}

	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = m.now()
	}

	cp := *cred
	m.byID[cp.ID] = &cp
	m.byEmail[cp.Email] = cp.ID
	return nil
}

func (m *MemoryStore) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	cred.PasswordHash = passwordHash
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cred, ok := m.byID[id]
	if !ok {
		return false, nil
	}
	delete(m.byID, id)
	delete(m.byEmail, cred.Email)
	return true, nil
}
