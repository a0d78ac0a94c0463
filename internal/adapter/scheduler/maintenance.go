package scheduler

import (
	"context"
	"log/slog"
	"time"

	"faultline/internal/catalog"
)

// Maintenance prunes stale catalog items on a schedule.
type Maintenance struct {
	svc    *catalog.Service
	maxAge time.Duration
	logger *slog.Logger
}

// NewMaintenance creates the pruning job. Items not updated within
// maxAge are removed on each run.
func NewMaintenance(svc *catalog.Service, maxAge time.Duration, logger *slog.Logger) *Maintenance {
	return &Maintenance{svc: svc, maxAge: maxAge, logger: logger}
}

// Run executes one pruning pass.
func (m *Maintenance) Run(ctx context.Context) error {
	removed, err := m.svc.Prune(ctx, m.maxAge)
	if err != nil {
		return err
	}
	if removed > 0 {
		m.logger.Info("pruned stale items", slog.Int64("removed", removed))
	}
	return nil
}

// Register wires the job into sched under spec.
func (m *Maintenance) Register(sched *Scheduler, spec string) error {
	_, err := sched.AddJob(spec, "prune-stale-items", m.Run)
	return err
}
