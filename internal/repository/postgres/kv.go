package postgres

import (
	"context"
	"database/sql"
)

// KVRepo implements repository.KVStore on the kv table
type KVRepo struct {
	db *sql.DB
}

// NewKVRepo creates a new key-value repository
func NewKVRepo(db *sql.DB) *KVRepo {
	return &KVRepo{db: db}
}

// Get returns the value stored under key
func (r *KVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := `SELECT value FROM kv WHERE key = $1`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return value, true, nil
}

// Set writes value under key, replacing any previous value
func (r *KVRepo) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, key, value)
	return err
}

// Delete removes key
func (r *KVRepo) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv WHERE key = $1`
	_, err := r.db.ExecContext(ctx, query, key)
	return err
}
