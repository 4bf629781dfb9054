package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// TxQuerier is implemented by both pgxpool.Pool and pgx.Tx.
// Repository methods that need transaction support should accept TxQuerier.
type TxQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PoolOptions configures NewPool.
type PoolOptions struct {
	DSN        string
	MaxConns   int32
	MinConns   int32
	MaxRetries int
	// PingTimeout bounds each connection check. Zero means 5s.
	PingTimeout time.Duration
}

const maxBackoff = 16 * time.Second

// NewPool creates a PostgreSQL connection pool and verifies it with a ping.
// Failed attempts are retried with exponential backoff (1s, 2s, 4s, ... capped at 16s).
func NewPool(ctx context.Context, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}

	// Ensure at least one attempt even if MaxRetries is 0
	attempts := max(opts.MaxRetries, 1)

	for attempt := 0; attempt < attempts; attempt++ {
		var pool *pgxpool.Pool
		pool, err = connect(ctx, cfg, pingTimeout)
		if err == nil {
			log.Info().
				Str("host", cfg.ConnConfig.Host).
				Str("database", cfg.ConnConfig.Database).
				Int32("max_conns", cfg.MaxConns).
				Msg("database connection established")
			return pool, nil
		}
		if attempt == attempts-1 {
			break
		}

		backoff := min(time.Duration(1<<attempt)*time.Second, maxBackoff)
		log.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", attempts).
			Dur("next_retry_in", backoff).
			Msg("database connection failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
}

func connect(ctx context.Context, cfg *pgxpool.Config, pingTimeout time.Duration) (*pgxpool.Pool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return pool, nil
}
