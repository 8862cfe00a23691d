package http

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"log/slog"

	"companion/internal/auth"
	"companion/internal/config"
)

type steamAuthenticator interface {
	AuthURL() string
	ValidateCallback(ctx context.Context, query url.Values) (auth.Identity, error)
}

// SteamHandler handles the Steam login endpoints for both credential modes.
type SteamHandler struct {
	steam        steamAuthenticator
	mode         config.AuthMode
	sessions     *auth.SessionService
	tokens       *auth.TokenManager
	logger       *slog.Logger
	frontendURL  string
	secureCookie bool
	cookieTTL    time.Duration
}

// NewSteamHandler creates a SteamHandler.
func NewSteamHandler(steam steamAuthenticator, cfg config.Config, sessions *auth.SessionService, tokens *auth.TokenManager, logger *slog.Logger) *SteamHandler {
	return &SteamHandler{
		steam:        steam,
		mode:         cfg.AuthMode,
		sessions:     sessions,
		tokens:       tokens,
		logger:       logger,
		frontendURL:  cfg.FrontendURL,
		secureCookie: cfg.SecureCookies(),
		cookieTTL:    cfg.CredentialTTL,
	}
}

// Begin handles GET /auth/steam
// Redirects the user to Steam's OpenID consent page.
func (h *SteamHandler) Begin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.steam.AuthURL(), http.StatusTemporaryRedirect)
}

// Return handles GET /auth/steam/return
// Verifies the provider callback and hands the resulting credential to the
// frontend: a session cookie in session mode, a token query parameter in
// bearer mode.
func (h *SteamHandler) Return(w http.ResponseWriter, r *http.Request) {
	identity, err := h.steam.ValidateCallback(r.Context(), r.URL.Query())
	if err != nil {
		h.logger.Warn("steam callback rejected", "error", err)
		http.Redirect(w, r, h.frontendURL+"/login", http.StatusTemporaryRedirect)
		return
	}

	switch h.mode {
	case config.AuthModeSession:
		token, err := h.sessions.CreateSession(r.Context(), identity)
		if err != nil {
			h.logger.Error("session creation failed", "error", err)
			http.Redirect(w, r, h.frontendURL+"/login", http.StatusTemporaryRedirect)
			return
		}

		http.SetCookie(w, h.sessionCookie(token, h.cookieTTL))
		h.logger.Info("steam login successful", "steam_id", identity.SteamID, "mode", "session")
		http.Redirect(w, r, h.frontendURL+"/library", http.StatusTemporaryRedirect)

	case config.AuthModeBearer:
		token, err := h.tokens.Issue(identity)
		if err != nil {
			h.logger.Error("token issuance failed", "error", err)
			http.Redirect(w, r, h.frontendURL+"/login", http.StatusTemporaryRedirect)
			return
		}

		h.logger.Info("steam login successful", "steam_id", identity.SteamID, "mode", "bearer")
		http.Redirect(w, r, h.frontendURL+"/auth/callback?token="+url.QueryEscape(token), http.StatusTemporaryRedirect)
	}
}

// Logout handles GET /api/logout (session mode only)
// Bearer mode has no server-side state; the client discards its token instead.
func (h *SteamHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.sessions.DeleteSession(r.Context(), cookie.Value); err != nil {
			h.logger.Error("logout failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Error al cerrar sesión")
			return
		}
	}

	clearCookie := h.sessionCookie("", 0)
	clearCookie.MaxAge = -1
	clearCookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, clearCookie)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Sesión cerrada"})
}

func (h *SteamHandler) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	}
	// Cross-site deployments need SameSite=None, which browsers only accept
	// on Secure cookies.
	if h.secureCookie {
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
