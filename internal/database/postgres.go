package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "min_conns", poolCfg.MinConns, "max_conns", poolCfg.MaxConns)
	return pool, nil
}

const (
	// migrationLockID is a PostgreSQL advisory lock ID for coordinating migrations.
	// Value: 0x706f7374 ("post" in ASCII hex)
	migrationLockID             = 0x706f7374
	migrationLockReleaseTimeout = 5 * time.Second
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		author TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		raw_text TEXT NOT NULL,
		normalized_text TEXT NOT NULL,
		lexicon_label TEXT,
		lexicon_score DOUBLE PRECISION,
		classifier_label TEXT,
		classifier_score DOUBLE PRECISION,
		ingested_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_query_ingested_at ON posts(query, ingested_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_unscored ON posts(ingested_at)
		WHERE lexicon_label IS NULL
		   OR lexicon_score IS NULL
		   OR classifier_label IS NULL
		   OR classifier_score IS NULL`,
}

// RunMigrations applies the schema under an advisory lock so concurrent
// instances do not race each other at startup.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migration: %w", err)
	}
	defer conn.Release()

	release, err := migrationLock(ctx, conn.Conn())
	if err != nil {
		return err
	}
	defer release()

	slog.Info("running database migrations")
	for _, migration := range migrations {
		if _, err := conn.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

func migrationLock(ctx context.Context, conn *pgx.Conn) (release func(), err error) {
	if _, err = conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	release = func() {
		ctx, cancel := context.WithTimeout(context.Background(), migrationLockReleaseTimeout)
		defer cancel()

		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			slog.Error("failed to release migration lock", "error", err)
		}
	}
	return release, nil
}
