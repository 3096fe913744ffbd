package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// NewPool opens the shared Postgres pool. Postgres may still be starting
// when the server boots, so connecting is retried with a fixed backoff.
func NewPool(ctx context.Context, databaseURL string, log zerolog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.ConnConfig.RuntimeParams["application_name"] = "dealership-backend"
	// Message timestamps are compared against the server clock in UTC.
	cfg.ConnConfig.RuntimeParams["timezone"] = "UTC"

	for attempt := 1; ; attempt++ {
		pool, err := connect(ctx, cfg)
		if err == nil {
			log.Info().Int("attempt", attempt).Str("host", cfg.ConnConfig.Host).Msg("database connected")
			return pool, nil
		}
		if attempt == connectAttempts {
			return nil, fmt.Errorf("connect after %d attempts: %w", connectAttempts, err)
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("database not ready")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
}

func connect(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
