package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingEvictor struct {
	calls atomic.Int32
	ttl   atomic.Int64
}

func (e *countingEvictor) EvictIdle(_ context.Context, ttl time.Duration) int {
	e.calls.Add(1)
	e.ttl.Store(int64(ttl))
	return 2
}

func TestSweep(t *testing.T) {
	ev := &countingEvictor{}
	s := New(ev, "@every 1m", 30*time.Minute, nil)

	require.Equal(t, 2, s.Sweep(context.Background()))
	require.EqualValues(t, 1, ev.calls.Load())
	require.Equal(t, int64(30*time.Minute), ev.ttl.Load())
}

func TestRunFiresOnSchedule(t *testing.T) {
	defer goleak.VerifyNone(t)

	ev := &countingEvictor{}
	s := New(ev, "@every 1s", time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return ev.calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestRunRejectsBadSchedule(t *testing.T) {
	s := New(&countingEvictor{}, "not a schedule", time.Minute, nil)
	require.Error(t, s.Run(context.Background()))
}
