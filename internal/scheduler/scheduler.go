package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Evictor closes sessions that have been idle longer than ttl.
type Evictor interface {
	EvictIdle(ctx context.Context, ttl time.Duration) int
}

// Sweeper periodically evicts idle chat sessions.
type Sweeper struct {
	cron     *cron.Cron
	evictor  Evictor
	schedule string
	ttl      time.Duration
	log      *zap.Logger
}

// New creates a sweeper running on a cron spec such as "@every 5m".
func New(evictor Evictor, schedule string, ttl time.Duration, log *zap.Logger) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sweeper{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		evictor:  evictor,
		schedule: schedule,
		ttl:      ttl,
		log:      log.Named("sweeper"),
	}
}

// Run sweeps on schedule until ctx is cancelled. An in-flight sweep finishes before Run
// returns.
func (s *Sweeper) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.log.Info("session sweeper started", zap.String("schedule", s.schedule), zap.Duration("ttl", s.ttl))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("session sweeper stopped")
	return nil
}

// Sweep evicts idle sessions once and returns how many were closed.
func (s *Sweeper) Sweep(ctx context.Context) int {
	n := s.evictor.EvictIdle(ctx, s.ttl)
	if n > 0 {
		s.log.Info("evicted idle sessions", zap.Int("count", n))
	}
	return n
}
