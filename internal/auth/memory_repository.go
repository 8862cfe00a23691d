package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]Session // tokenHash -> session
}

// NewInMemorySessionRepository creates an empty session store for local development.
func NewInMemorySessionRepository() SessionRepository {
	return &inMemorySessionRepository{sessions: make(map[string]Session)}
}

func (m *inMemorySessionRepository) CreateSession(ctx context.Context, session Session, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[tokenHash] = session
	return nil
}

func (m *inMemorySessionRepository) FindSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[tokenHash]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (m *inMemorySessionRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for hash, session := range m.sessions {
		if session.ID == id {
			delete(m.sessions, hash)
			return nil
		}
	}
	return nil
}

func (m *inMemorySessionRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var removed int64
	for hash, session := range m.sessions {
		if now.After(session.ExpiresAt) {
			delete(m.sessions, hash)
			removed++
		}
	}
	return removed, nil
}
