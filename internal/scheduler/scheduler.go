// Package scheduler reloads the dataset on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"dtindex/internal/config"
	"dtindex/internal/infrastructure"
	"dtindex/internal/services"
)

// Reloader re-reads the dataset
type Reloader interface {
	Reload(ctx context.Context) (*services.Snapshot, error)
}

// Scheduler runs periodic dataset reloads. A nil *Scheduler is a no-op so
// callers need not check whether a schedule was configured.
type Scheduler struct {
	cron     *cron.Cron
	reloader Reloader
	timeout  time.Duration
	logger   *slog.Logger
}

// New builds a scheduler from the dataset config. It returns nil when no
// reload schedule is set.
func New(cfg config.DatasetConfig, reloader Reloader, logger *slog.Logger) (*Scheduler, error) {
	if cfg.ReloadSchedule == "" {
		return nil, nil
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "scheduler"))

	loc, err := time.LoadLocation(cfg.ReloadTimezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC",
			slog.String("timezone", cfg.ReloadTimezone),
			slog.String("error", err.Error()))
		loc = time.UTC
	}

	cl := cronLogger{logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		reloader: reloader,
		timeout:  cfg.LoadTimeout,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(cfg.ReloadSchedule, s.runReload); err != nil {
		return nil, fmt.Errorf("failed to add reload job %q: %w", cfg.ReloadSchedule, err)
	}
	logger.Info("reload scheduled",
		slog.String("schedule", cfg.ReloadSchedule),
		slog.String("timezone", loc.String()))
	return s, nil
}

// Start begins running the schedule in the background
func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
}

// Stop halts the schedule and waits for a running reload to finish or ctx
// to expire
func (s *Scheduler) Stop(ctx context.Context) {
	if s == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("reload still running at shutdown")
	}
}

// Next returns the next scheduled reload time
func (s *Scheduler) Next() time.Time {
	if s == nil {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runReload() {
	ctx := infrastructure.EnsureTraceID(context.Background())
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.InfoContext(ctx, "scheduled reload started")
	snap, err := s.reloader.Reload(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled reload failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return
	}
	s.logger.InfoContext(ctx, "scheduled reload completed",
		slog.Uint64("generation", snap.Generation),
		slog.Int("rows", snap.Raw.Len()),
		slog.Duration("duration", time.Since(start)))
}

// cronLogger adapts slog to cron's logger
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
