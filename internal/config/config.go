package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AuthMode selects the credential strategy issued after the Steam handshake.
type AuthMode string

const (
	// AuthModeSession stores the verified identity server-side, keyed by an
	// opaque cookie value.
	AuthModeSession AuthMode = "session"
	// AuthModeBearer embeds the verified identity in a signed, expiring token
	// handed back to the frontend as a query parameter.
	AuthModeBearer AuthMode = "bearer"
)

// Config aggregates runtime configuration for the Companion services.
type Config struct {
	Environment    string
	HTTPPort       int
	LogLevel       string
	AllowedOrigins []string

	FrontendURL string
	BackendURL  string

	AuthMode      AuthMode
	SessionSecret string
	CredentialTTL time.Duration

	SteamAPIKey string

	DataStore   string
	DatabaseURL string

	ChatAPIURL string
	ChatAPIKey string
	ChatModel  string
}

// Load reads configuration from environment variables with sensible defaults for local development.
func Load() (Config, error) {
	sessionSecret, err := getEnvOrFile("SESSION_SECRET", "/run/secrets/companion_session_secret")
	if err != nil {
		return Config{}, err
	}

	steamAPIKey, err := getEnvOrFile("STEAM_API_KEY", "/run/secrets/companion_steam_api_key")
	if err != nil {
		return Config{}, err
	}

	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/companion_database_url")
	if err != nil {
		return Config{}, err
	}

	chatAPIKey, err := getEnvOrFile("CHAT_API_KEY", "/run/secrets/companion_chat_api_key")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:    getEnv("APP_ENV", "development"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins: parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		FrontendURL:    strings.TrimSuffix(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		AuthMode:       AuthMode(strings.ToLower(getEnv("AUTH_MODE", "bearer"))),
		SessionSecret:  strings.TrimSpace(sessionSecret),
		SteamAPIKey:    strings.TrimSpace(steamAPIKey),
		DataStore:      strings.ToLower(getEnv("DATA_STORE", "memory")),
		DatabaseURL:    databaseURL,
		ChatAPIURL:     strings.TrimSuffix(getEnv("CHAT_API_URL", "https://api.deepseek.com/v1"), "/"),
		ChatAPIKey:     strings.TrimSpace(chatAPIKey),
		ChatModel:      getEnv("CHAT_MODEL", "deepseek-chat"),
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "5000"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	cfg.BackendURL = strings.TrimSuffix(getEnv("BACKEND_URL", fmt.Sprintf("http://localhost:%d", port)), "/")

	ttlValue := getEnv("CREDENTIAL_TTL", "24h")
	ttl, err := time.ParseDuration(ttlValue)
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("invalid CREDENTIAL_TTL %q", ttlValue)
	}
	cfg.CredentialTTL = ttl

	switch cfg.AuthMode {
	case AuthModeSession, AuthModeBearer:
	default:
		return Config{}, fmt.Errorf("invalid AUTH_MODE %q (expected session or bearer)", cfg.AuthMode)
	}

	if cfg.DataStore == "postgres" && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATA_STORE is postgres but DATABASE_URL is not set")
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// UseInMemoryStore returns true if the in-memory repositories should be used.
func (c Config) UseInMemoryStore() bool {
	return c.DataStore == "memory"
}

// ChatEnabled reports whether the recommendation chat upstream is configured.
func (c Config) ChatEnabled() bool {
	return c.ChatAPIKey != ""
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(c.FrontendURL, "https://")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
