package tags

import (
	"context"
	"errors"
	"time"

	"companion/internal/library"
)

// ErrUnknownKind is returned when a tag kind is neither liked nor played.
var ErrUnknownKind = errors.New("unknown tag kind")

// Kind distinguishes the two per-user game markers.
type Kind string

const (
	// KindLiked marks a game as a favorite.
	KindLiked Kind = "liked"
	// KindPlayed marks a game as played.
	KindPlayed Kind = "played"
)

// ParseKind validates a kind supplied over the wire.
func ParseKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindLiked, KindPlayed:
		return Kind(value), nil
	default:
		return "", ErrUnknownKind
	}
}

// Record is a per-user, per-game marker. It mirrors a subset of the game's
// fields so tagged games render without refetching the library.
type Record struct {
	SteamID         string    `db:"steam_id" json:"-"`
	Kind            Kind      `db:"kind" json:"-"`
	AppID           int64     `db:"appid" json:"appid"`
	Name            string    `db:"name" json:"name"`
	PlaytimeForever int64     `db:"playtime_forever" json:"playtime_forever"`
	ImgIconURL      string    `db:"img_icon_url" json:"img_icon_url"`
	CreatedAt       time.Time `db:"created_at" json:"timestamp"`
}

// NewRecord builds a Record for the given identity, kind, and game.
func NewRecord(steamID string, kind Kind, game library.Game) Record {
	return Record{
		SteamID:         steamID,
		Kind:            kind,
		AppID:           game.AppID,
		Name:            game.Name,
		PlaytimeForever: game.PlaytimeForever,
		ImgIconURL:      game.ImgIconURL,
		CreatedAt:       time.Now().UTC(),
	}
}

// Repository defines persistence for tag records. Writes are last-write-wins;
// no transaction spans the two kinds.
type Repository interface {
	Upsert(ctx context.Context, record Record) error
	Delete(ctx context.Context, steamID string, kind Kind, appID int64) error
	Exists(ctx context.Context, steamID string, kind Kind, appID int64) (bool, error)
	ListByKind(ctx context.Context, steamID string, kind Kind) ([]Record, error)
}
