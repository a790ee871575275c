// Package scheduler runs the pager cycle on a timer for hosts without cron.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Cycler struct {
	run      func(context.Context) error
	interval time.Duration
	log      *zap.Logger
}

// NewCycler calls run every interval. Each call must build its own session
// so the one-page-per-run limit resets between cycles.
func NewCycler(run func(context.Context) error, interval time.Duration, log *zap.Logger) *Cycler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cycler{run: run, interval: interval, log: log}
}

func (c *Cycler) Run(ctx context.Context) error {
	t := time.NewTicker(c.interval)
	defer t.Stop()

	// initial pass
	c.once(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			c.once(ctx)
		}
	}
}

// A failed cycle is logged and the next tick tries again; status is only
// written by cycles that finish.
func (c *Cycler) once(ctx context.Context) {
	start := time.Now()
	if err := c.run(ctx); err != nil {
		c.log.Error("cycle_failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return
	}
	c.log.Debug("cycle_done", zap.Duration("took", time.Since(start)))
}
