package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/inakamono/paddy-advisor/internal/observability"
)

// Runner is the work the scheduler triggers once per day.
type Runner interface {
	RunAll(ctx context.Context, asOf time.Time)
}

// Scheduler fires the daily evaluation at a fixed local hour. The clock
// is injectable so tests can step through days without sleeping.
type Scheduler struct {
	runner   Runner
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	location *time.Location
	runHour  int
}

// New creates a Scheduler running on the real clock.
func New(runner Runner, logger *slog.Logger, metrics *observability.Metrics, loc *time.Location, runHour int) *Scheduler {
	return &Scheduler{
		runner:   runner,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
		location: loc,
		runHour:  runHour,
	}
}

// WithClock swaps the time source, for tests.
func (s *Scheduler) WithClock(c clockwork.Clock) *Scheduler {
	s.clock = c
	return s
}

// nextRun returns the next occurrence of the run hour strictly after now.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	local := now.In(s.location)
	run := time.Date(local.Year(), local.Month(), local.Day(), s.runHour, 0, 0, 0, s.location)
	if !run.After(local) {
		run = run.AddDate(0, 0, 1)
	}
	return run
}

// Run blocks until the context is cancelled, triggering the runner at
// the configured hour each day. The evaluation date is the day the tick
// fires; catch-up for missed days happens inside the runner.
func (s *Scheduler) Run(ctx context.Context) error {
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	for {
		now := s.clock.Now()
		next := s.nextRun(now)
		s.logger.Info("next evaluation scheduled", "at", next.Format(time.RFC3339))

		timer := s.clock.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return nil
		case fired := <-timer.Chan():
			s.runner.RunAll(ctx, fired.In(s.location))
		}
	}
}

// RunNow triggers one evaluation immediately, used at startup so a
// restarted service catches up without waiting for the next tick.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.runner.RunAll(ctx, s.clock.Now().In(s.location))
}
