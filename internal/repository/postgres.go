package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps collections in a Postgres table
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new postgres-backed store
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// InitSchema creates the collections table if needed
func (r *PostgresStore) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS collections (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create collections table: %w", err)
	}
	return nil
}

// Get retrieves the value stored under key
func (r *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM collections WHERE key = $1`
	var value string
	err := r.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set replaces the value stored under key
func (r *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO collections (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Close closes the pool
func (r *PostgresStore) Close() error {
	r.db.Close()
	return nil
}
