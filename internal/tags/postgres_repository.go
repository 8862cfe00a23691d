package tags

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a tag repository backed by Postgres.
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Upsert(ctx context.Context, record Record) error {
	_, err := r.db.NamedExecContext(ctx, `
        INSERT INTO game_tags (steam_id, kind, appid, name, playtime_forever, img_icon_url, created_at)
        VALUES (:steam_id, :kind, :appid, :name, :playtime_forever, :img_icon_url, :created_at)
        ON CONFLICT (steam_id, kind, appid) DO UPDATE
        SET name = EXCLUDED.name,
            playtime_forever = EXCLUDED.playtime_forever,
            img_icon_url = EXCLUDED.img_icon_url,
            created_at = EXCLUDED.created_at
    `, record)
	return err
}

func (r *postgresRepository) Delete(ctx context.Context, steamID string, kind Kind, appID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM game_tags WHERE steam_id = $1 AND kind = $2 AND appid = $3`,
		steamID, kind, appID)
	return err
}

func (r *postgresRepository) Exists(ctx context.Context, steamID string, kind Kind, appID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowxContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM game_tags WHERE steam_id = $1 AND kind = $2 AND appid = $3)`,
		steamID, kind, appID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *postgresRepository) ListByKind(ctx context.Context, steamID string, kind Kind) ([]Record, error) {
	records := make([]Record, 0)
	err := r.db.SelectContext(ctx, &records, `
        SELECT steam_id, kind, appid, name, playtime_forever, img_icon_url, created_at
        FROM game_tags
        WHERE steam_id = $1 AND kind = $2
    `, steamID, kind)
	if err != nil {
		return nil, err
	}
	return records, nil
}
