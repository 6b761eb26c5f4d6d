package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/jobalert/internal/model"
)

var _ model.StateStore = (*PostgresStore)(nil)

// PostgresStore keeps state blobs in a Postgres table as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL, verifies connectivity and ensures
// the state_blobs table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = 4
	// Transaction-mode poolers (PgBouncer, Supabase) reject cached prepared statements.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS state_blobs (
		key        TEXT PRIMARY KEY,
		data       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := pool.Exec(ctx, createTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating state_blobs table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// List returns the names directly below path.
func (s *PostgresStore) List(ctx context.Context, path string) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT key FROM state_blobs WHERE starts_with(key, $1)", path+"/")
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	return childNames(path, keys), nil
}

// Read returns the values stored at key, or ok=false if the key does not exist.
func (s *PostgresStore) Read(ctx context.Context, key string) ([]string, bool, error) {
	var data string
	err := s.pool.QueryRow(ctx, "SELECT data::text FROM state_blobs WHERE key = $1", key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	values, err := decode(key, []byte(data))
	if err != nil {
		return nil, false, err
	}
	return values, true, nil
}

// Write replaces the values stored at key.
func (s *PostgresStore) Write(ctx context.Context, key string, values []string) error {
	data, err := encode(values)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO state_blobs (key, data, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
