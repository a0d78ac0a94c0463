// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is a scheduled task. The context is cancelled on Stop.
type JobFunc func(ctx context.Context) error

// cronLogger adapts the cron logger interface to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}

// Scheduler manages cron jobs with panic recovery and per-job logging.
type Scheduler struct {
	cron      *cron.Cron
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a scheduler whose jobs stop when parentCtx is cancelled.
func New(parentCtx context.Context, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{logger: logger.With("component", "cron")}),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob schedules fn under the given cron spec. Job errors are logged
// with the full diagnostic chain; they never stop the scheduler.
func (s *Scheduler) AddJob(spec, name string, fn JobFunc) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		s.wg.Add(1)
		defer s.wg.Done()
		s.run(name, fn)
	})
	if err != nil {
		return 0, fmt.Errorf("scheduler: add job %q: %w", name, err)
	}
	return id, nil
}

func (s *Scheduler) run(name string, fn JobFunc) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("job panicked",
				slog.String("job", name), slog.Any("panic", rec))
		}
	}()

	start := time.Now()
	if err := fn(s.ctx); err != nil {
		s.logger.Error("job failed",
			slog.String("job", name),
			slog.Duration("dur", time.Since(start)),
			slog.String("detail", fmt.Sprintf("%+v", err)),
		)
		return
	}
	s.logger.Info("job done",
		slog.String("job", name), slog.Duration("dur", time.Since(start)))
}

// Start begins dispatching jobs. Idempotent.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.cron.Start()
		s.logger.Info("scheduler started")
	})
}

// Stop cancels running jobs and waits for them to finish. Idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		ctx := s.cron.Stop()
		s.cancel()
		<-ctx.Done()
		s.wg.Wait()
		s.logger.Info("scheduler stopped")
	})
}
