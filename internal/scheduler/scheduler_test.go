package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inakamono/paddy-advisor/internal/observability"
)

type recordingRunner struct {
	mu    sync.Mutex
	calls []time.Time
	ran   chan struct{}
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{ran: make(chan struct{}, 10)}
}

func (r *recordingRunner) RunAll(_ context.Context, asOf time.Time) {
	r.mu.Lock()
	r.calls = append(r.calls, asOf)
	r.mu.Unlock()
	r.ran <- struct{}{}
}

func (r *recordingRunner) callTimes() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Time(nil), r.calls...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNextRun(t *testing.T) {
	runner := newRecordingRunner()
	s := New(runner, testLogger(), observability.NewMetricsForTesting(), time.UTC, 6)

	t.Run("before the run hour fires today", func(t *testing.T) {
		now := time.Date(2025, time.June, 1, 3, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC), s.nextRun(now))
	})

	t.Run("at or after the run hour fires tomorrow", func(t *testing.T) {
		now := time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2025, time.June, 2, 6, 0, 0, 0, time.UTC), s.nextRun(now))

		now = time.Date(2025, time.June, 1, 18, 30, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2025, time.June, 2, 6, 0, 0, 0, time.UTC), s.nextRun(now))
	})
}

func TestSchedulerRun(t *testing.T) {
	runner := newRecordingRunner()
	fc := clockwork.NewFakeClockAt(time.Date(2025, time.June, 1, 3, 0, 0, 0, time.UTC))
	s := New(runner, testLogger(), observability.NewMetricsForTesting(), time.UTC, 6).WithClock(fc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// First tick at 06:00 the same day.
	fc.BlockUntil(1)
	fc.Advance(3 * time.Hour)
	select {
	case <-runner.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never fired")
	}

	// Next tick 24 hours later.
	fc.BlockUntil(1)
	fc.Advance(24 * time.Hour)
	select {
	case <-runner.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("second run never fired")
	}

	cancel()
	require.NoError(t, <-done)

	calls := runner.callTimes()
	require.Len(t, calls, 2)
	assert.Equal(t, time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC), calls[0])
	assert.Equal(t, time.Date(2025, time.June, 2, 6, 0, 0, 0, time.UTC), calls[1])
}

func TestRunNow(t *testing.T) {
	runner := newRecordingRunner()
	fc := clockwork.NewFakeClockAt(time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC))
	s := New(runner, testLogger(), observability.NewMetricsForTesting(), time.UTC, 6).WithClock(fc)

	s.RunNow(context.Background())
	calls := runner.callTimes()
	require.Len(t, calls, 1)
	assert.Equal(t, time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC), calls[0])
}
