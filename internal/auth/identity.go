package auth

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the authenticated Steam user's external id plus display metadata.
// It is built once from the provider's profile payload during the handshake and
// never persisted beyond the lifetime of the credential that carries it.
type Identity struct {
	SteamID    string `json:"id"`
	Name       string `json:"displayName"`
	AvatarURL  string `json:"avatar"`
	ProfileURL string `json:"profileUrl"`
}

// Session represents a server-held authenticated session (session mode only).
type Session struct {
	ID        uuid.UUID
	Identity  Identity
	ExpiresAt time.Time
	CreatedAt time.Time
}
