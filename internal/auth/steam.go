package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ErrHandshakeFailed is returned when the OpenID callback cannot be verified,
// covering denied consent, tampered parameters, and malformed profiles alike.
var ErrHandshakeFailed = errors.New("steam handshake failed")

const (
	defaultOpenIDURL   = "https://steamcommunity.com/openid/login"
	defaultSteamAPIURL = "https://api.steampowered.com"

	openidNS         = "http://specs.openid.net/auth/2.0"
	openidIdentifier = "http://specs.openid.net/auth/2.0/identifier_select"
)

var claimedIDPattern = regexp.MustCompile(`^https?://steamcommunity\.com/openid/id/(\d{17})$`)

// SteamAuthenticator performs the Steam OpenID 2.0 handshake and resolves the
// verified claimed id into an Identity via the Steam Web API.
type SteamAuthenticator struct {
	apiKey      string
	realm       string
	returnURL   string
	openidURL   string
	steamAPIURL string
	client      *http.Client
}

// Option configures the SteamAuthenticator during construction.
type Option func(*SteamAuthenticator)

// WithOpenIDURL overrides the Steam OpenID endpoint (used in tests).
func WithOpenIDURL(u string) Option {
	return func(a *SteamAuthenticator) {
		a.openidURL = strings.TrimRight(u, "/")
	}
}

// WithSteamAPIURL overrides the Steam Web API base URL (used in tests).
func WithSteamAPIURL(u string) Option {
	return func(a *SteamAuthenticator) {
		a.steamAPIURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the HTTP client used for verification calls.
func WithHTTPClient(c *http.Client) Option {
	return func(a *SteamAuthenticator) {
		a.client = c
	}
}

// NewSteamAuthenticator creates an authenticator whose callbacks return to
// backendURL + "/auth/steam/return".
func NewSteamAuthenticator(apiKey, backendURL string, opts ...Option) *SteamAuthenticator {
	backendURL = strings.TrimSuffix(backendURL, "/")
	a := &SteamAuthenticator{
		apiKey:      apiKey,
		realm:       backendURL,
		returnURL:   backendURL + "/auth/steam/return",
		openidURL:   defaultOpenIDURL,
		steamAPIURL: defaultSteamAPIURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// AuthURL builds the checkid_setup redirect target that starts the login.
func (a *SteamAuthenticator) AuthURL() string {
	values := url.Values{
		"openid.ns":         {openidNS},
		"openid.mode":       {"checkid_setup"},
		"openid.return_to":  {a.returnURL},
		"openid.realm":      {a.realm},
		"openid.identity":   {openidIdentifier},
		"openid.claimed_id": {openidIdentifier},
	}
	return a.openidURL + "?" + values.Encode()
}

// ValidateCallback verifies the provider's callback parameters through the
// check_authentication round trip and returns the caller's Identity.
func (a *SteamAuthenticator) ValidateCallback(ctx context.Context, query url.Values) (Identity, error) {
	if query.Get("openid.mode") != "id_res" {
		return Identity{}, fmt.Errorf("%w: mode %q", ErrHandshakeFailed, query.Get("openid.mode"))
	}

	if returnTo := query.Get("openid.return_to"); !strings.HasPrefix(returnTo, a.returnURL) {
		return Identity{}, fmt.Errorf("%w: unexpected return_to %q", ErrHandshakeFailed, returnTo)
	}

	steamID, err := parseClaimedID(query.Get("openid.claimed_id"))
	if err != nil {
		return Identity{}, err
	}

	valid, err := a.checkAuthentication(ctx, query)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	if !valid {
		return Identity{}, fmt.Errorf("%w: assertion rejected by provider", ErrHandshakeFailed)
	}

	identity, err := a.fetchProfile(ctx, steamID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	return identity, nil
}

// checkAuthentication replays the signed parameters back to the provider with
// mode check_authentication, per OpenID 2.0 direct verification.
func (a *SteamAuthenticator) checkAuthentication(ctx context.Context, query url.Values) (bool, error) {
	form := url.Values{}
	for key, vals := range query {
		if strings.HasPrefix(key, "openid.") && len(vals) > 0 {
			form.Set(key, vals[0])
		}
	}
	form.Set("openid.mode", "check_authentication")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.openidURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("call openid endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("openid endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return false, fmt.Errorf("read verification response: %w", err)
	}

	// Key-value form response, one pair per line.
	for _, line := range strings.Split(string(body), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), ":")
		if found && key == "is_valid" {
			return value == "true", nil
		}
	}

	return false, nil
}

func parseClaimedID(claimedID string) (string, error) {
	matches := claimedIDPattern.FindStringSubmatch(claimedID)
	if matches == nil {
		return "", fmt.Errorf("%w: malformed claimed_id %q", ErrHandshakeFailed, claimedID)
	}
	return matches[1], nil
}

type playerSummariesResponse struct {
	Response struct {
		Players []struct {
			SteamID     string `json:"steamid"`
			PersonaName string `json:"personaname"`
			ProfileURL  string `json:"profileurl"`
			AvatarFull  string `json:"avatarfull"`
		} `json:"players"`
	} `json:"response"`
}

func (a *SteamAuthenticator) fetchProfile(ctx context.Context, steamID string) (Identity, error) {
	endpoint, err := url.Parse(a.steamAPIURL + "/ISteamUser/GetPlayerSummaries/v2/")
	if err != nil {
		return Identity{}, fmt.Errorf("build profile url: %w", err)
	}

	values := url.Values{}
	values.Set("key", a.apiKey)
	values.Set("steamids", steamID)
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Identity{}, fmt.Errorf("create profile request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("call steam api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("steam api returned status %d", resp.StatusCode)
	}

	var payload playerSummariesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Identity{}, fmt.Errorf("decode profile response: %w", err)
	}

	if len(payload.Response.Players) == 0 {
		return Identity{}, fmt.Errorf("no profile returned for steam id %s", steamID)
	}

	player := payload.Response.Players[0]
	return Identity{
		SteamID:    steamID,
		Name:       player.PersonaName,
		AvatarURL:  player.AvatarFull,
		ProfileURL: player.ProfileURL,
	}, nil
}
