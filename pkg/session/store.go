package session

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/llumina/pkg/errors"
)

// Store is the interface for live session storage.
type Store interface {
	// Get retrieves a session by ID. Missing sessions are reported as
	// SESSION_NOT_FOUND, expired ones as SESSION_EXPIRED (and removed).
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes and closes a session.
	Delete(ctx context.Context, sessionID string) error

	// Cleanup removes expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session), now: time.Now}
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", sessionID)
	}
	if sess.expiredAt(m.now()) {
		_ = m.Delete(ctx, sessionID)
		return nil, errors.New(errors.ErrCodeSessionExpired, "session %q expired", sessionID)
	}
	return sess, nil
}

// Set implements Store.
func (m *MemoryStore) Set(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "session without ID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[sess.ID]; ok && old != sess {
		_ = old.Close()
	}
	m.sessions[sess.ID] = sess
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if ok {
		return sess.Close()
	}
	return nil
}

// Cleanup implements Store.
func (m *MemoryStore) Cleanup(ctx context.Context) (int, error) {
	now := m.now()
	m.mu.Lock()
	var expired []*Session
	for id, sess := range m.sessions {
		if sess.expiredAt(now) {
			expired = append(expired, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		_ = sess.Close()
	}
	return len(expired), nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close closes every session.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, sess := range sessions {
		_ = sess.Close()
	}
	return nil
}

func (s *Session) expiredAt(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiredLocked(now)
}

var _ Store = (*MemoryStore)(nil)
