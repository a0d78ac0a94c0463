// Package sqlite opens and migrates the embedded SQLite store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // sqlite driver
)

// Options configures the SQLite connection.
type Options struct {
	// BusyTimeout is the wait on SQLITE_BUSY.
	BusyTimeout time.Duration
	// WALMode enables write-ahead logging.
	WALMode bool
	// ForeignKeys enables foreign key enforcement.
	ForeignKeys bool
	// PingTimeout bounds the connectivity check at open time.
	PingTimeout time.Duration
	// MaxOpenConns limits open connections. SQLite writes are
	// single-writer; keep this small.
	MaxOpenConns int
}

// DefaultOptions returns settings suitable for a single-node service.
func DefaultOptions() Options {
	return Options{
		BusyTimeout:  5 * time.Second,
		WALMode:      true,
		ForeignKeys:  true,
		PingTimeout:  5 * time.Second,
		MaxOpenConns: 4,
	}
}

// Open creates the database file's directory if needed, opens the
// database and verifies connectivity.
func Open(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path, opts))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, opts.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	return db, nil
}

func dsn(path string, opts Options) string {
	q := url.Values{}
	if opts.BusyTimeout > 0 {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	}
	if opts.WALMode {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	if opts.ForeignKeys {
		q.Add("_pragma", "foreign_keys(1)")
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
