package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"hostel-backend/internal/config"
	"hostel-backend/internal/services"
	"hostel-backend/internal/timeutil"
)

// jobTimeout bounds a single scheduled run.
const jobTimeout = 10 * time.Minute

// Jobs is the set of daily rent jobs the scheduler drives.
type Jobs interface {
	RefreshOverdueStatuses(ctx context.Context) (*services.JobResult, error)
	GenerateDueRecords(ctx context.Context) (*services.JobResult, error)
	BackfillMissingRecords(ctx context.Context) (*services.JobResult, error)
}

// Scheduler runs the rent jobs on cron schedules in the configured
// timezone. A run still in progress when its next tick fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	logger *zap.Logger

	mu      sync.Mutex
	running bool
}

func New(cfg *config.Config, jobs Jobs, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	switch {
	case err != nil && cfg.Scheduler.Timezone == "Asia/Kolkata":
		// hosts without tzdata
		loc = timeutil.IST
	case err != nil:
		return nil, fmt.Errorf("scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	logger = logger.Named("scheduler")
	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs:   jobs,
		logger: logger,
	}

	entries := []struct {
		spec string
		name string
		run  func(context.Context) (*services.JobResult, error)
	}{
		{cfg.Scheduler.RefreshSpec, services.JobRefreshOverdue, jobs.RefreshOverdueStatuses},
		{cfg.Scheduler.GenerateSpec, services.JobGenerateDue, jobs.GenerateDueRecords},
		{cfg.Scheduler.BackfillSpec, services.JobBackfill, jobs.BackfillMissingRecords},
	}
	for _, e := range entries {
		e := e
		if _, err := s.cron.AddFunc(e.spec, func() { s.run(e.name, e.run) }); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", e.name, e.spec, err)
		}
	}
	return s, nil
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("entries", len(s.cron.Entries())))
}

// Stop stops firing new jobs and waits for running ones until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entries is the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RunNow runs the three jobs in order, outside the schedule. Every job
// runs even if an earlier one failed; the errors are joined.
func (s *Scheduler) RunNow(ctx context.Context) ([]*services.JobResult, error) {
	runs := []func(context.Context) (*services.JobResult, error){
		s.jobs.RefreshOverdueStatuses,
		s.jobs.GenerateDueRecords,
		s.jobs.BackfillMissingRecords,
	}
	results := make([]*services.JobResult, 0, len(runs))
	var errs []error
	for _, run := range runs {
		res, err := run(ctx)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

func (s *Scheduler) run(name string, job func(context.Context) (*services.JobResult, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	res, err := job(ctx)
	if err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.logger.Info("scheduled job done",
		zap.String("job", name),
		zap.Int("processed", res.Processed),
		zap.Int("created", res.Created),
		zap.Int64("updated", res.Updated),
		zap.Int("failed", len(res.Errors)))
}

// cronLogger adapts zap to cron's logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
