package progress

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	selectValueSQL = `SELECT value FROM progress_kv WHERE key = $1`
	upsertValueSQL = `INSERT INTO progress_kv (key, value, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
)

// pgQuerier is the subset of *pgxpool.Pool the Postgres backend needs.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresKV keeps blobs in the progress_kv table (see db/migrations).
type PostgresKV struct {
	db pgQuerier
}

var _ KV = (*PostgresKV)(nil)

func NewPostgresKV(db pgQuerier) *PostgresKV {
	return &PostgresKV{db: db}
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := p.db.QueryRow(ctx, selectValueSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.db.Exec(ctx, upsertValueSQL, key, string(value))
	return err
}

func (p *PostgresKV) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}
