package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// HealthCheckOptions controls the retry loop in WaitForDB.
type HealthCheckOptions struct {
	// MaxRetries is the attempt limit; 0 retries until the context expires.
	MaxRetries int
	// InitialInterval is the delay after the first failed attempt.
	InitialInterval time.Duration
	// MaxInterval caps the exponential backoff.
	MaxInterval time.Duration
	// PingTimeout bounds each individual attempt.
	PingTimeout time.Duration
}

// DefaultHealthCheckOptions returns a retry policy suitable for waiting
// on a database that is starting up alongside the service.
func DefaultHealthCheckOptions() HealthCheckOptions {
	return HealthCheckOptions{
		MaxRetries:      10,
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		PingTimeout:     5 * time.Second,
	}
}

// Open connects via the pgx stdlib driver and verifies connectivity.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return db, nil
}

// WaitForDB blocks until the database at dsn answers a ping, retrying
// with exponential backoff. It returns nil on success, or the last ping
// error once the retry or context budget is spent.
func WaitForDB(ctx context.Context, dsn string, opts HealthCheckOptions) error {
	attempt := 0
	interval := opts.InitialInterval

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("pg: context cancelled while waiting for database: %w", ctx.Err())
		default:
		}

		attempt++
		err := ping(ctx, dsn, opts.PingTimeout)
		if err == nil {
			return nil
		}
		if opts.MaxRetries > 0 && attempt >= opts.MaxRetries {
			return fmt.Errorf("pg: database not available after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("pg: context cancelled after %d attempts: %w", attempt, ctx.Err())
		case <-time.After(interval):
		}

		interval *= 2
		if opts.MaxInterval > 0 && interval > opts.MaxInterval {
			interval = opts.MaxInterval
		}
	}
}

func ping(ctx context.Context, dsn string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
