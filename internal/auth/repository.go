package auth

import (
	"context"

	"github.com/google/uuid"
)

// SessionRepository defines persistence for server-held sessions (session mode).
// Tokens are stored hashed; the raw value only ever lives in the cookie.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session, tokenHash string) error
	FindSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
