// Package scheduler repeats a full run on a cron schedule for hosts without
// an external scheduler.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobalert/internal/poller"
)

// Job is one full pass over every search term.
type Job interface {
	Run(ctx context.Context) (poller.Summary, error)
}

// Scheduler owns the daemon loop: one immediate run, then one run per
// schedule tick. A tick that fires while a run is in progress is skipped.
type Scheduler struct {
	job    Job
	spec   string
	logger *slog.Logger
}

// NewScheduler creates a scheduler for spec, a standard cron expression or a
// descriptor such as "@every 3h".
func NewScheduler(job Job, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		job:    job,
		spec:   spec,
		logger: logger,
	}
}

// Run blocks until ctx is cancelled, then waits for an in-flight run to
// finish. It returns an error only for an invalid schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	clog := cronLogger{logger: s.logger}
	c := cron.New(cron.WithLogger(clog))

	job := cron.NewChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)).
		Then(cron.FuncJob(func() { s.runOnce(ctx) }))
	if _, err := c.AddJob(s.spec, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", "schedule", s.spec)
	c.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run()
	}()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	wg.Wait()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.job.Run(ctx); err != nil {
		s.logger.Error("run failed", "error", err)
	}
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
