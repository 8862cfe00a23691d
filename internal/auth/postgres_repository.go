package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresSessionRepository implements SessionRepository using PostgreSQL.
type PostgresSessionRepository struct {
	db *sqlx.DB
}

// NewPostgresSessionRepository creates a session repository backed by Postgres.
func NewPostgresSessionRepository(db *sqlx.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

type sessionRow struct {
	ID          uuid.UUID `db:"id"`
	SteamID     string    `db:"steam_id"`
	DisplayName string    `db:"display_name"`
	AvatarURL   string    `db:"avatar_url"`
	ProfileURL  string    `db:"profile_url"`
	ExpiresAt   time.Time `db:"expires_at"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r sessionRow) toSession() *Session {
	return &Session{
		ID: r.ID,
		Identity: Identity{
			SteamID:    r.SteamID,
			Name:       r.DisplayName,
			AvatarURL:  r.AvatarURL,
			ProfileURL: r.ProfileURL,
		},
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}

// CreateSession inserts a new session row keyed by the hashed token.
func (r *PostgresSessionRepository) CreateSession(ctx context.Context, session Session, tokenHash string) error {
	const query = `
		INSERT INTO sessions (id, token_hash, steam_id, display_name, avatar_url, profile_url, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		tokenHash,
		session.Identity.SteamID,
		session.Identity.Name,
		session.Identity.AvatarURL,
		session.Identity.ProfileURL,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return err
}

// FindSessionByTokenHash looks up a session by its hashed token. A missing row
// is not an error; callers treat nil as "no session".
func (r *PostgresSessionRepository) FindSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	const query = `
		SELECT id, steam_id, display_name, avatar_url, profile_url, expires_at, created_at
		FROM sessions
		WHERE token_hash = $1
	`

	var row sessionRow
	if err := r.db.GetContext(ctx, &row, query, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return row.toSession(), nil
}

// DeleteSession removes a session by id.
func (r *PostgresSessionRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// DeleteExpiredSessions removes every session past its expiry.
func (r *PostgresSessionRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
