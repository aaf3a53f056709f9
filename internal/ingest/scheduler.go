package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is a unit of work run on a schedule.
type Job interface {
	Name() string
	RunOnce(ctx context.Context) error
}

// Scheduler runs a Job on a cron spec. Runs never overlap.
type Scheduler struct {
	cron *cron.Cron
	job  Job
	log  *slog.Logger
}

// NewScheduler registers job on spec (standard five-field cron or a
// descriptor such as "@every 5m"). ctx bounds every run.
func NewScheduler(ctx context.Context, spec string, job Job, log *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		job:  job,
		log:  log,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.run(ctx) }); err != nil {
		return nil, fmt.Errorf("register %s on %q: %w", job.Name(), spec, err)
	}
	return s, nil
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.job.RunOnce(ctx); err != nil {
		s.log.Warn("scheduled run failed", "job", s.job.Name(), "error", err)
	}
}

// Start starts the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "job", s.job.Name())
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped", "job", s.job.Name())
}

// Run performs one immediate update and then blocks on the schedule until
// ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.run(ctx)
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}
