package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature, shape, or
// expiry verification.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and verifies the signed bearer credentials used in
// bearer mode. Tokens are stateless; expiry is the only bound on validity.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager signing with the given secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

type identityClaims struct {
	Name       string `json:"name"`
	AvatarURL  string `json:"avatar"`
	ProfileURL string `json:"profile_url"`
	jwt.RegisteredClaims
}

// Issue signs a credential carrying the identity fields and an expiration instant.
func (m *TokenManager) Issue(identity Identity) (string, error) {
	now := time.Now()
	claims := identityClaims{
		Name:       identity.Name,
		AvatarURL:  identity.AvatarURL,
		ProfileURL: identity.ProfileURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.SteamID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded Identity.
func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	var claims identityClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		SteamID:    claims.Subject,
		Name:       claims.Name,
		AvatarURL:  claims.AvatarURL,
		ProfileURL: claims.ProfileURL,
	}, nil
}
