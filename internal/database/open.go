package database

import (
	"context"
	"fmt"

	"yatrinivas/internal/config"

	"github.com/rs/zerolog"
)

// Store is an opened backend. SQLite is set when a SQLite database backs the store,
// so callers can schedule backups.
type Store struct {
	KV
	SQLite *DB
}

// Open builds the backend selected by cfg.Store.
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Store, error) {
	primary, sqlite, err := openDriver(ctx, cfg, cfg.Store.Driver, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Store.Fallback == "" || cfg.Store.Fallback == cfg.Store.Driver {
		return &Store{KV: primary, SQLite: sqlite}, nil
	}

	fallback, fallbackSQLite, err := openDriver(ctx, cfg, cfg.Store.Fallback, logger)
	if err != nil {
		_ = primary.Close()
		return nil, fmt.Errorf("open fallback: %w", err)
	}
	if sqlite == nil {
		sqlite = fallbackSQLite
	}

	l := logger.With().Str("component", "failover").Logger()
	return &Store{KV: NewFailoverKV(primary, fallback, &l), SQLite: sqlite}, nil
}

func openDriver(ctx context.Context, cfg *config.Config, driver string, logger *zerolog.Logger) (KV, *DB, error) {
	switch driver {
	case config.DriverMemory:
		return NewMemoryKV(), nil, nil
	case config.DriverSQLite:
		db, err := NewDB(cfg.Store.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case config.DriverRedis:
		kv := NewRedisKV(cfg.Redis)
		if err := kv.Ping(ctx); err != nil && cfg.Store.Fallback == "" {
			_ = kv.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return kv, nil, nil
	case config.DriverPostgres:
		kv, err := NewPostgresKV(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		return kv, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", driver)
}
