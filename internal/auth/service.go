package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionService provides session-mode credential logic: opaque cookie values
// mapped to server-held identities.
type SessionService struct {
	repo       SessionRepository
	sessionTTL time.Duration
}

// NewSessionService creates a SessionService.
func NewSessionService(repo SessionRepository, sessionTTL time.Duration) *SessionService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &SessionService{
		repo:       repo,
		sessionTTL: sessionTTL,
	}
}

// CreateSession stores the verified identity and returns the opaque token
// destined for the session cookie.
func (s *SessionService) CreateSession(ctx context.Context, identity Identity) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	now := time.Now()
	session := Session{
		ID:        uuid.New(),
		Identity:  identity,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}

	if err := s.repo.CreateSession(ctx, session, hashToken(token)); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	return token, nil
}

// ValidateSession checks the token and returns the associated Identity, or nil
// when the session is missing or expired. Expired sessions are deleted on sight.
func (s *SessionService) ValidateSession(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.repo.FindSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.repo.DeleteSession(ctx, session.ID)
		return nil, nil
	}

	identity := session.Identity
	return &identity, nil
}

// DeleteSession removes the session associated with the given token.
func (s *SessionService) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.repo.FindSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil
	}

	return s.repo.DeleteSession(ctx, session.ID)
}

// CleanupExpiredSessions removes all expired sessions from the store.
func (s *SessionService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx)
}

// hashToken returns the SHA-256 hash of the token as a hex string.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
