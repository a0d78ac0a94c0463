// Package app wires configuration, storage, the error registry and the
// HTTP server into a runnable service.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"faultline/internal/adapter/external/pricing"
	"faultline/internal/adapter/httpapi"
	"faultline/internal/adapter/scheduler"
	"faultline/internal/catalog"
	"faultline/internal/config"
	"faultline/internal/fault"
	"faultline/internal/faults"
	"faultline/internal/platform/logger"
	"faultline/internal/platform/pg"
	"faultline/internal/platform/sqlite"
)

// App wires application components.
type App struct {
	cfg config.Config
	log *slog.Logger
}

// New loads configuration and sets up logging.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		Service:      "faultlined",
	})
	return &App{cfg: cfg, log: log}, nil
}

// Run starts the service and blocks until shutdown.
func (a *App) Run() error {
	defer func() { _ = logger.Close(a.log) }()
	a.log.Info("starting", slog.String("env", a.cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The registry must publish before anything serves traffic. A
	// rejected declaration set is a programming error, not a runtime
	// condition; refuse to start.
	fault.SetServicePrefix(a.cfg.Errors.ServicePrefix)
	registry, err := faults.BuildRegistry()
	if err != nil {
		return fmt.Errorf("error registry rejected: %w", err)
	}
	a.log.Info("error registry published",
		slog.Int("identifiers", len(registry.Schemas())),
		slog.Int("entry_points", len(registry.EntryPoints())),
	)

	db, dialect, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	sink := fault.NewIncidentSink(a.log, a.cfg.Errors.IncidentBuffer)
	defer sink.Close()

	builder := fault.NewBuilder(
		fault.WithReporter(sink),
		fault.WithDebug(a.cfg.Errors.Debug),
	)

	repo := catalog.NewSQLRepository(db, dialect)
	quoter := pricing.New(a.cfg.Pricing.BaseURL)
	svc := catalog.NewService(repo, quoter)

	sched := scheduler.New(ctx, a.log)
	if spec := a.cfg.Maintenance.PruneSchedule; spec != "" {
		maxAge := time.Duration(a.cfg.Maintenance.PruneMaxAgeH) * time.Hour
		job := scheduler.NewMaintenance(svc, maxAge, a.log)
		if err := job.Register(sched, spec); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           httpapi.Router(svc, builder, a.log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server listening", slog.String("addr", a.cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *App) openDB(ctx context.Context) (*sql.DB, catalog.Dialect, error) {
	switch a.cfg.DB.Driver {
	case "postgres":
		waitOpts := pg.DefaultHealthCheckOptions()
		if err := pg.WaitForDB(ctx, a.cfg.DB.PGDSN, waitOpts); err != nil {
			return nil, "", err
		}
		if err := pg.ApplyMigrations(a.log, a.cfg.DB.Migrations, a.cfg.DB.PGDSN); err != nil {
			return nil, "", err
		}
		db, err := pg.Open(ctx, a.cfg.DB.PGDSN)
		if err != nil {
			return nil, "", err
		}
		return db, catalog.DialectPostgres, nil
	default:
		db, err := sqlite.Open(ctx, a.cfg.DB.SQLitePath, sqlite.DefaultOptions())
		if err != nil {
			return nil, "", err
		}
		if err := sqlite.ApplyMigrations(a.log, a.cfg.DB.Migrations, a.cfg.DB.SQLitePath); err != nil {
			_ = db.Close()
			return nil, "", err
		}
		return db, catalog.DialectSQLite, nil
	}
}
