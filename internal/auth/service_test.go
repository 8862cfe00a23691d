package auth

import (
	"context"
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	svc := NewSessionService(NewInMemorySessionRepository(), time.Hour)

	token, err := svc.CreateSession(context.Background(), testIdentity())
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty session token")
	}

	identity, err := svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession returned error: %v", err)
	}
	if identity == nil {
		t.Fatal("expected identity for fresh session")
	}
	if *identity != testIdentity() {
		t.Fatalf("identity mismatch: got %+v", *identity)
	}
}

func TestValidateSessionRejectsUnknownToken(t *testing.T) {
	svc := NewSessionService(NewInMemorySessionRepository(), time.Hour)

	identity, err := svc.ValidateSession(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("ValidateSession returned error: %v", err)
	}
	if identity != nil {
		t.Fatalf("expected nil identity for unknown token, got %+v", identity)
	}
}

func TestValidateSessionExpiresSessions(t *testing.T) {
	repo := NewInMemorySessionRepository()
	svc := NewSessionService(repo, time.Nanosecond)

	token, err := svc.CreateSession(context.Background(), testIdentity())
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	time.Sleep(time.Millisecond)

	identity, err := svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession returned error: %v", err)
	}
	if identity != nil {
		t.Fatal("expected expired session to be rejected")
	}

	// The expired row is deleted on sight.
	session, err := repo.FindSessionByTokenHash(context.Background(), hashToken(token))
	if err != nil {
		t.Fatalf("FindSessionByTokenHash returned error: %v", err)
	}
	if session != nil {
		t.Fatal("expected expired session to be removed from the store")
	}
}

func TestDeleteSessionInvalidatesToken(t *testing.T) {
	svc := NewSessionService(NewInMemorySessionRepository(), time.Hour)

	token, err := svc.CreateSession(context.Background(), testIdentity())
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	if err := svc.DeleteSession(context.Background(), token); err != nil {
		t.Fatalf("DeleteSession returned error: %v", err)
	}

	identity, err := svc.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateSession returned error: %v", err)
	}
	if identity != nil {
		t.Fatal("expected deleted session to be rejected")
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	repo := NewInMemorySessionRepository()
	expiredSvc := NewSessionService(repo, time.Nanosecond)
	liveSvc := NewSessionService(repo, time.Hour)

	if _, err := expiredSvc.CreateSession(context.Background(), testIdentity()); err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	liveToken, err := liveSvc.CreateSession(context.Background(), testIdentity())
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}

	time.Sleep(time.Millisecond)

	removed, err := liveSvc.CleanupExpiredSessions(context.Background())
	if err != nil {
		t.Fatalf("CleanupExpiredSessions returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed session, got %d", removed)
	}

	identity, err := liveSvc.ValidateSession(context.Background(), liveToken)
	if err != nil {
		t.Fatalf("ValidateSession returned error: %v", err)
	}
	if identity == nil {
		t.Fatal("expected live session to survive cleanup")
	}
}
