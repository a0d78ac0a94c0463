package sqlite

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // sqlite migration driver
	_ "github.com/golang-migrate/migrate/v4/source/file"     // file:// migration source
)

// ApplyMigrations runs all pending migrations from sourceURL
// (a file:// path) against the database file at path.
func ApplyMigrations(log *slog.Logger, sourceURL, path string) error {
	m, err := migrate.New(sourceURL, "sqlite://"+path)
	if err != nil {
		return fmt.Errorf("sqlite: init migrations: %w", err)
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
		return fmt.Errorf("sqlite: apply migrations: %w", err)
	}
	log.Info("migrations applied", "source", sourceURL)
	return nil
}
