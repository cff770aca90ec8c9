package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresKeyValueStore keeps values in the kv_store table created by
// database.EnsureSchema.
type PostgresKeyValueStore struct {
	pool *pgxpool.Pool
}

func NewPostgresKeyValueStore(pool *pgxpool.Pool) *PostgresKeyValueStore {
	return &PostgresKeyValueStore{pool: pool}
}

func (r *PostgresKeyValueStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM kv_store WHERE key = $1`

	var value string
	err := r.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, true, nil
}

// Set inserts the key or overwrites the existing value. There is no version
// check: concurrent writers to the same key follow last-write-wins.
func (r *PostgresKeyValueStore) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO kv_store (key, value)
	          VALUES ($1, $2)
	          ON CONFLICT (key) DO UPDATE
	          SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (r *PostgresKeyValueStore) Remove(ctx context.Context, key string) error {
	query := `DELETE FROM kv_store WHERE key = $1`

	if _, err := r.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func (r *PostgresKeyValueStore) ListKeys(ctx context.Context) ([]string, error) {
	query := `SELECT key FROM kv_store ORDER BY key ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keys: %w", err)
	}

	return keys, nil
}

func (r *PostgresKeyValueStore) RemoveMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	query := `DELETE FROM kv_store WHERE key = ANY($1)`

	if _, err := r.pool.Exec(ctx, query, keys); err != nil {
		return fmt.Errorf("failed to delete %d keys: %w", len(keys), err)
	}
	return nil
}
