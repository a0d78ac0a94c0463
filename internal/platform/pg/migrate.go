package pg

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5:// migration driver
	_ "github.com/golang-migrate/migrate/v4/source/file"     // file:// migration source
)

// ApplyMigrations runs all pending migrations from sourceURL (a file://
// path) against the database at dsn.
func ApplyMigrations(log *slog.Logger, sourceURL, dsn string) error {
	// golang-migrate selects its driver by URL scheme.
	target := strings.Replace(dsn, "postgres://", "pgx5://", 1)

	m, err := migrate.New(sourceURL, target)
	if err != nil {
		return fmt.Errorf("pg: init migrations: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn("closing migration driver", "source_err", srcErr, "db_err", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("migrations up to date", "source", sourceURL)
			return nil
		}
		return fmt.Errorf("pg: apply migrations: %w", err)
	}
	log.Info("migrations applied", "source", sourceURL)
	return nil
}
