// Package repository holds the durable key-value backends. Each collection is
// stored as one serialized value under its own key.
package repository

import (
	"context"
	"fmt"

	"koi-keeper-backend/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// KVStore is the durable storage used by the services layer
type KVStore interface {
	// Get returns the value stored under key. found is false when nothing has been written yet.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set replaces the whole value stored under key
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open creates the backend selected by the storage config
func Open(ctx context.Context, cfg *config.Config) (KVStore, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(cfg.Storage.SQLitePath)
	case "postgres":
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		repo := NewPostgresStore(db)
		if err := repo.InitSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return repo, nil
	case "s3":
		client, err := NewS3Client(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client, cfg.AWS.S3Bucket, cfg.Storage.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
