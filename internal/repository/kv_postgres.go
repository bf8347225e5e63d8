package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	getKVQuery = `SELECT value FROM kv_store WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`

	setKVQuery = `INSERT INTO kv_store (key, value, expires_at, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`

	deleteKVQuery = `DELETE FROM kv_store WHERE key = $1`
)

// PostgresKVStore keeps values in the kv_store table.
type PostgresKVStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ KVStore = (*PostgresKVStore)(nil)

// NewPostgresKVStore uses db, normally opened with the pgx stdlib driver.
// A zero ttl stores rows without expiry.
func NewPostgresKVStore(db *sql.DB, ttl time.Duration) *PostgresKVStore {
	return &PostgresKVStore{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

func (s *PostgresKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, getKVQuery, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query kv %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresKVStore) Set(ctx context.Context, key string, value []byte) error {
	var expiresAt sql.NullTime
	if s.ttl > 0 {
		expiresAt = sql.NullTime{Time: s.now().Add(s.ttl), Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, setKVQuery, key, value, expiresAt); err != nil {
		return fmt.Errorf("upsert kv %s: %w", key, err)
	}
	return nil
}

func (s *PostgresKVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteKVQuery, key); err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}
