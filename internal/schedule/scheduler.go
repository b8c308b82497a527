// Package schedule runs the batch repeatedly on a cron expression using robfig/cron.
package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler fires a single job on a standard 5-field cron spec. Overlapping firings are skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	job    Job
	logger *slog.Logger
}

func NewScheduler(spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	return &Scheduler{cron: c, spec: spec, job: job, logger: logger}, nil
}

// Run starts the schedule and blocks until ctx is done, then waits for a job in flight.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.fire(ctx) }); err != nil {
		return fmt.Errorf("add job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started", slog.String("spec", s.spec), slog.Int("jobs", len(s.cron.Entries())))

	<-ctx.Done()
	s.logger.Info("cron scheduler stopping")
	<-s.cron.Stop().Done()
	s.logger.Info("cron scheduler stopped")
	return nil
}

// RunNow executes the job synchronously, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.fire(ctx)
}

func (s *Scheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", slog.Any("error", err))
		return
	}
	s.logger.Debug("scheduled run completed")
}
