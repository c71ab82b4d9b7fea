package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory behind a single mutex. It
// mirrors the Redis [Store] semantics, including lazy expiry on read, and is
// meant for tests and single-process deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byUser   map[string]map[string]struct{}
	now      func() time.Time
}

// NewMemoryStore returns an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		byUser:   make(map[string]map[string]struct{}),
		now:      time.Now,
	}
}

// Save stores a copy of sess, replacing any record with the same ID.
func (m *MemoryStore) Save(_ context.Context, sess *Session) error {
	if sess == nil || sess.SessionID == "" {
		return ErrCorruptRecord
	}

	cp := *sess

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[cp.SessionID] = &cp
	idx := m.byUser[cp.UserID]
	if idx == nil {
		idx = make(map[string]struct{})
		m.byUser[cp.UserID] = idx
	}
	idx[cp.SessionID] = struct{}{}
	return nil
}

// Get returns a copy of the session, deleting it first when expired.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Expired(m.now()) {
		m.deleteLocked(sess)
		return nil, ErrNotFound
	}

	cp := *sess
	return &cp, nil
}

// Delete removes a session, reporting whether it existed.
func (m *MemoryStore) Delete(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return false, nil
	}
	m.deleteLocked(sess)
	return true, nil
}

// DeleteAllForUser removes every session owned by userID.
func (m *MemoryStore) DeleteAllForUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for id := range m.byUser[userID] {
		if sess, ok := m.sessions[id]; ok {
			m.deleteLocked(sess)
			deleted++
		}
	}
	delete(m.byUser, userID)
	return deleted, nil
}

// SweepExpired removes every expired session and returns the count.
func (m *MemoryStore) SweepExpired(_ context.Context) (int, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, sess := range m.sessions {
		if sess.Expired(now) {
			m.deleteLocked(sess)
			removed++
		}
	}
	return removed, nil
}

// ActiveSessionIDs returns the IDs of unexpired sessions owned by userID.
func (m *MemoryStore) ActiveSessionIDs(_ context.Context, userID string) ([]string, error) {
	now := m.now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id := range m.byUser[userID] {
		if sess, ok := m.sessions[id]; ok && !sess.Expired(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ActiveSessionCount returns the number of unexpired sessions for userID.
func (m *MemoryStore) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	ids, err := m.ActiveSessionIDs(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Ping always succeeds; memory needs no transport.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) deleteLocked(sess *Session) {
	delete(m.sessions, sess.SessionID)
	if idx, ok := m.byUser[sess.UserID]; ok {
		delete(idx, sess.SessionID)
		if len(idx) == 0 {
			delete(m.byUser, sess.UserID)
		}
	}
}
