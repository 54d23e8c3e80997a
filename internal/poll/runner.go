package poll

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Runner drives the cycle on a fixed interval: once immediately, then every
// tick until the context is cancelled. Cycle errors are logged and the next
// tick proceeds independently; there is no backoff.
type Runner struct {
	cycle    *Cycle
	interval time.Duration
	log      *zap.Logger
}

func NewRunner(cycle *Cycle, interval time.Duration, log *zap.Logger) *Runner {
	return &Runner{cycle: cycle, interval: interval, log: log}
}

// Run blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.cycle.Run(ctx); err != nil {
			r.log.Error("poll cycle failed", zap.Error(err))
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
