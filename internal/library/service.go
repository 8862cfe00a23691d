package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrFetchFailed is returned for any transport failure or non-2xx response
// from the Steam Web API. One best-effort attempt per request, no retry.
var ErrFetchFailed = errors.New("library fetch failed")

// ErrUnexpectedPayload is returned when the upstream body does not match the
// one documented GetOwnedGames shape.
var ErrUnexpectedPayload = errors.New("unexpected library payload")

// Game is an owned game exactly as the Steam Web API reports it.
type Game struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int64  `json:"playtime_forever"`
	ImgIconURL      string `json:"img_icon_url"`
}

const defaultSteamAPIURL = "https://api.steampowered.com"

// Service fetches owned-games libraries from the Steam Web API.
type Service struct {
	client      *http.Client
	apiKey      string
	steamAPIURL string
}

// Option configures the Service during construction.
type Option func(*Service)

// WithSteamAPIURL overrides the base URL for Steam Web API requests.
func WithSteamAPIURL(baseURL string) Option {
	return func(s *Service) {
		s.steamAPIURL = strings.TrimRight(baseURL, "/")
	}
}

// NewService constructs a Service.
func NewService(client *http.Client, apiKey string, opts ...Option) *Service {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	svc := &Service{
		client:      client,
		apiKey:      apiKey,
		steamAPIURL: defaultSteamAPIURL,
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

// The response envelope is always {"response": {...}}; "games" may be absent
// for private or empty libraries, which is not an error.
type ownedGamesResponse struct {
	Response *struct {
		GameCount int64  `json:"game_count"`
		Games     []Game `json:"games"`
	} `json:"response"`
}

// FetchOwnedGames returns every game the given Steam id owns, including app
// metadata and played free titles. An absent games list yields an empty slice.
func (s *Service) FetchOwnedGames(ctx context.Context, steamID string) ([]Game, error) {
	endpoint, err := url.Parse(s.steamAPIURL + "/IPlayerService/GetOwnedGames/v1/")
	if err != nil {
		return nil, fmt.Errorf("build owned games url: %w", err)
	}

	values := url.Values{}
	values.Set("key", s.apiKey)
	values.Set("steamid", steamID)
	values.Set("include_appinfo", "true")
	values.Set("include_played_free_games", "true")
	endpoint.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create owned games request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: steam api returned status %d", ErrFetchFailed, resp.StatusCode)
	}

	var payload ownedGamesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
	}

	if payload.Response == nil {
		return nil, fmt.Errorf("%w: missing response envelope", ErrUnexpectedPayload)
	}

	if payload.Response.Games == nil {
		return []Game{}, nil
	}

	return payload.Response.Games, nil
}
