package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATA_STORE", "memory")
	t.Setenv("PORT", "5000")
	t.Setenv("STEAM_API_KEY", "test-key")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("DATABASE_URL", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.AuthMode != AuthModeBearer {
		t.Fatalf("expected AUTH_MODE to default to bearer, got %q", cfg.AuthMode)
	}
	if cfg.FrontendURL != "http://localhost:3000" {
		t.Fatalf("unexpected frontend URL %q", cfg.FrontendURL)
	}
	if cfg.BackendURL != "http://localhost:5000" {
		t.Fatalf("expected backend URL derived from port, got %q", cfg.BackendURL)
	}
	if cfg.CredentialTTL != 24*time.Hour {
		t.Fatalf("expected 24h credential TTL, got %v", cfg.CredentialTTL)
	}
	if cfg.ChatEnabled() {
		t.Fatal("expected chat to be disabled without CHAT_API_KEY")
	}
}

func TestLoadRejectsUnknownAuthMode(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATA_STORE", "memory")
	t.Setenv("PORT", "5000")
	t.Setenv("STEAM_API_KEY", "test-key")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("AUTH_MODE", "both")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for unknown AUTH_MODE")
	}
	if !strings.Contains(err.Error(), "AUTH_MODE") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATA_STORE", "postgres")
	t.Setenv("PORT", "5000")
	t.Setenv("STEAM_API_KEY", "test-key")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DATA_STORE is postgres without DATABASE_URL")
	}
}

func TestLoadRejectsBadCredentialTTL(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATA_STORE", "memory")
	t.Setenv("PORT", "5000")
	t.Setenv("STEAM_API_KEY", "test-key")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("CREDENTIAL_TTL", "yesterday")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid CREDENTIAL_TTL")
	}
}

func TestSecureCookiesFollowsFrontendScheme(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATA_STORE", "memory")
	t.Setenv("PORT", "5000")
	t.Setenv("STEAM_API_KEY", "test-key")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("FRONTEND_URL", "https://companion.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if !cfg.SecureCookies() {
		t.Fatal("expected secure cookies for https frontend")
	}
	if cfg.FrontendURL != "https://companion.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.FrontendURL)
	}
}
