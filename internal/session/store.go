// Package session keeps dashboard sessions: the backend bearer token and role
// obtained at login, keyed by an opaque session id.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"cot-dashboard/internal/domain"
)

// ErrNotFound means the id is unknown, expired, or holds no token.
var ErrNotFound = errors.New("session not found")

type Store interface {
	Save(ctx context.Context, sess domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a process-local Store for tests and single-process tools.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	sess    domain.Session
	expires time.Time
}

// NewMemoryStore creates a store. ttl <= 0 keeps sessions until deleted.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Save(ctx context.Context, sess domain.Session) error {
	if sess.ID == "" {
		return errors.New("session id is required")
	}
	var expires time.Time
	if m.ttl > 0 {
		expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = memoryEntry{sess: sess, expires: expires}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (domain.Session, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || !e.sess.Authenticated() {
		return domain.Session{}, ErrNotFound
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		_ = m.Delete(ctx, id)
		return domain.Session{}, ErrNotFound
	}
	return e.sess, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
