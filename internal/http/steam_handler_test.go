package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"companion/internal/auth"
	"companion/internal/config"
)

type fakeSteamAuthenticator struct {
	authURL  string
	identity auth.Identity
	err      error
}

func (f *fakeSteamAuthenticator) AuthURL() string {
	if f.authURL == "" {
		return "https://steamcommunity.com/openid/login?fake=1"
	}
	return f.authURL
}

func (f *fakeSteamAuthenticator) ValidateCallback(ctx context.Context, query url.Values) (auth.Identity, error) {
	if f.err != nil {
		return auth.Identity{}, f.err
	}
	return f.identity, nil
}

func bearerConfig() config.Config {
	return config.Config{
		Environment:   "development",
		AuthMode:      config.AuthModeBearer,
		FrontendURL:   "http://frontend.test",
		CredentialTTL: time.Hour,
	}
}

func sessionConfig() config.Config {
	cfg := bearerConfig()
	cfg.AuthMode = config.AuthModeSession
	return cfg
}

func TestSteamBeginRedirectsToProvider(t *testing.T) {
	steam := &fakeSteamAuthenticator{authURL: "https://steamcommunity.com/openid/login?x=1"}
	handler := NewSteamHandler(steam, bearerConfig(), nil, auth.NewTokenManager("secret", time.Hour), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/auth/steam", nil)
	rec := httptest.NewRecorder()

	handler.Begin(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected status 307, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != steam.authURL {
		t.Fatalf("expected redirect to %q, got %q", steam.authURL, got)
	}
}

func TestSteamReturnRedirectsToLoginOnFailure(t *testing.T) {
	steam := &fakeSteamAuthenticator{err: errors.New("bad handshake")}
	handler := NewSteamHandler(steam, bearerConfig(), nil, auth.NewTokenManager("secret", time.Hour), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/auth/steam/return?openid.mode=id_res", nil)
	rec := httptest.NewRecorder()

	handler.Return(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected status 307, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "http://frontend.test/login" {
		t.Fatalf("expected redirect to login, got %q", got)
	}
}

func TestSteamReturnBearerModeIssuesVerifiableToken(t *testing.T) {
	identity := sampleIdentity()
	steam := &fakeSteamAuthenticator{identity: identity}
	tokens := auth.NewTokenManager("secret", time.Hour)
	handler := NewSteamHandler(steam, bearerConfig(), nil, tokens, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/auth/steam/return?openid.mode=id_res", nil)
	rec := httptest.NewRecorder()

	handler.Return(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected status 307, got %d", rec.Code)
	}

	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect location: %v", err)
	}
	if !strings.HasPrefix(location.String(), "http://frontend.test/auth/callback?token=") {
		t.Fatalf("unexpected redirect target %q", location)
	}

	verified, err := tokens.Verify(location.Query().Get("token"))
	if err != nil {
		t.Fatalf("redirect token did not verify: %v", err)
	}
	if verified != identity {
		t.Fatalf("expected identity %+v, got %+v", identity, verified)
	}
}

func TestSteamReturnSessionModeSetsCookie(t *testing.T) {
	identity := sampleIdentity()
	steam := &fakeSteamAuthenticator{identity: identity}
	sessions := auth.NewSessionService(auth.NewInMemorySessionRepository(), time.Hour)
	handler := NewSteamHandler(steam, sessionConfig(), sessions, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/auth/steam/return?openid.mode=id_res", nil)
	rec := httptest.NewRecorder()

	handler.Return(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected status 307, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "http://frontend.test/library" {
		t.Fatalf("expected redirect to library, got %q", got)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
			break
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected session cookie to be set")
	}
	if !cookie.HttpOnly {
		t.Fatal("expected session cookie to be HttpOnly")
	}

	stored, err := sessions.ValidateSession(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("validate session: %v", err)
	}
	if stored == nil || stored.SteamID != identity.SteamID {
		t.Fatalf("expected stored identity %q, got %+v", identity.SteamID, stored)
	}
}

func TestSteamLogoutDeletesSessionAndClearsCookie(t *testing.T) {
	sessions := auth.NewSessionService(auth.NewInMemorySessionRepository(), time.Hour)
	token, err := sessions.CreateSession(context.Background(), sampleIdentity())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	handler := NewSteamHandler(&fakeSteamAuthenticator{}, sessionConfig(), sessions, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"message\":\"Sesión cerrada\"}\n" {
		t.Fatalf("unexpected body: %q", got)
	}

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cleared = c
			break
		}
	}
	if cleared == nil || cleared.MaxAge != -1 {
		t.Fatalf("expected expired clearing cookie, got %+v", cleared)
	}

	identity, err := sessions.ValidateSession(context.Background(), token)
	if err != nil {
		t.Fatalf("validate session: %v", err)
	}
	if identity != nil {
		t.Fatal("expected session to be deleted")
	}
}

func TestSteamLogoutWithoutCookieStillSucceeds(t *testing.T) {
	sessions := auth.NewSessionService(auth.NewInMemorySessionRepository(), time.Hour)
	handler := NewSteamHandler(&fakeSteamAuthenticator{}, sessionConfig(), sessions, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/logout", nil)
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
