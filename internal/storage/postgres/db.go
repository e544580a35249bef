// Package postgres
package postgres

import (
	"context"
	"fmt"
	"time"

	"sysbro/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS probe_history (
    id             UUID PRIMARY KEY,
    server_index   INTEGER     NOT NULL,
    url            TEXT        NOT NULL,
    state          TEXT        NOT NULL,
    peak_bps       BIGINT      NOT NULL DEFAULT 0,
    formatted      TEXT        NOT NULL DEFAULT '',
    samples        INTEGER     NOT NULL DEFAULT 0,
    bytes_received BIGINT      NOT NULL DEFAULT 0,
    duration_ms    BIGINT      NOT NULL DEFAULT 0,
    error          TEXT        NOT NULL DEFAULT '',
    finished_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_probe_history_finished_at ON probe_history (finished_at);
`

func InitDB(ctx context.Context, databaseURL string, log logger.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database not responding: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	log.Info("postgres connection established successfully")

	return pool, nil
}
