package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobalert/internal/model"
)

var _ model.StateStore = (*SQLiteStore)(nil)

// SQLiteStore keeps state blobs in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// state_blobs table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS state_blobs (
		key        TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state_blobs table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// List returns the names directly below path.
func (s *SQLiteStore) List(ctx context.Context, path string) ([]string, error) {
	prefix := path + "/"
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM state_blobs WHERE substr(key, 1, length(?)) = ?", prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("listing %s: %w", path, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	return childNames(path, keys), nil
}

// Read returns the values stored at key, or ok=false if the key does not exist.
func (s *SQLiteStore) Read(ctx context.Context, key string) ([]string, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM state_blobs WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
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
func (s *SQLiteStore) Write(ctx context.Context, key string, values []string) error {
	data, err := encode(values)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO state_blobs (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
