// Package scheduler owns the periodic loops that drive the engine: the
// one-second tick that advances every countdown and the coarser sweep that
// lets the synthetic bidder compete. The host constructs one scheduler and
// runs it for the life of the process.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Engine is the slice of the auction engine the scheduler drives.
type Engine interface {
	Tick(ctx context.Context)
	AISweep(ctx context.Context)
}

type Scheduler struct {
	engine       Engine
	tickEvery    time.Duration
	aiSweepEvery time.Duration
}

func New(engine Engine, tickEvery, aiSweepEvery time.Duration) *Scheduler {
	if tickEvery <= 0 {
		tickEvery = time.Second
	}
	if aiSweepEvery <= 0 {
		aiSweepEvery = 20 * time.Second
	}
	return &Scheduler{engine: engine, tickEvery: tickEvery, aiSweepEvery: aiSweepEvery}
}

// Run blocks until ctx is cancelled. A tick is never cancelled mid-flight;
// cancellation is only observed between firings.
func (s *Scheduler) Run(ctx context.Context) {
	tick := time.NewTicker(s.tickEvery)
	defer tick.Stop()
	sweep := time.NewTicker(s.aiSweepEvery)
	defer sweep.Stop()

	slog.Info("scheduler started", "tick", s.tickEvery, "ai_sweep", s.aiSweepEvery)
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-tick.C:
			s.engine.Tick(ctx)
		case <-sweep.C:
			s.engine.AISweep(ctx)
		}
	}
}
