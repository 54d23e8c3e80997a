// Package poll orchestrates one fetch, filter, reconcile, notify, persist
// round against the upstream feed.
package poll

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/closurewatch/closurewatch/internal/feed"
	"github.com/closurewatch/closurewatch/internal/geo"
	"github.com/closurewatch/closurewatch/internal/notify"
	"github.com/closurewatch/closurewatch/internal/reconcile"
	"github.com/closurewatch/closurewatch/internal/sms"
	"github.com/closurewatch/closurewatch/internal/store"
)

// ErrCycleRunning means Run was entered while a previous cycle was still in
// flight. Ticks must not overlap; hitting this is a scheduling bug, not a
// condition to handle.
var ErrCycleRunning = errors.New("poll cycle already running")

// Cycle wires the engines to their collaborators for one polling round.
type Cycle struct {
	fetcher   feed.Fetcher
	bounds    geo.Bounds
	snapshots store.SnapshotStore
	roster    store.RosterStore
	transport sms.Transport
	log       *zap.Logger
	now       func() time.Time

	running atomic.Bool
}

func NewCycle(
	fetcher feed.Fetcher,
	bounds geo.Bounds,
	snapshots store.SnapshotStore,
	roster store.RosterStore,
	transport sms.Transport,
	log *zap.Logger,
) *Cycle {
	return &Cycle{
		fetcher:   fetcher,
		bounds:    bounds,
		snapshots: snapshots,
		roster:    roster,
		transport: transport,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the cycle clock, for tests.
func (c *Cycle) WithClock(now func() time.Time) *Cycle {
	c.now = now
	return c
}

// Run executes one full cycle. A fetch failure aborts the cycle leaving
// snapshot and roster untouched; the next tick retries independently.
func (c *Cycle) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrCycleRunning
	}
	defer c.running.Store(false)

	alerts, err := c.fetcher.FetchCurrentAlerts(ctx)
	if err != nil {
		cycles.WithLabelValues("fetch_error").Inc()
		return fmt.Errorf("fetch alerts: %w", err)
	}

	// Previous is already filtered; only the fresh fetch goes through geo.
	current := c.bounds.Filter(alerts)
	activeClosures.Set(float64(len(current)))

	previous, err := c.snapshots.Load()
	if err != nil {
		cycles.WithLabelValues("load_error").Inc()
		return fmt.Errorf("load snapshot: %w", err)
	}

	if reconcile.FirstRun(previous) {
		c.log.Info("no prior snapshot, initializing", zap.Int("closures", len(current)))
		if err := c.snapshots.Save(current); err != nil {
			cycles.WithLabelValues("save_error").Inc()
			return fmt.Errorf("save snapshot: %w", err)
		}
		cycles.WithLabelValues("ok").Inc()
		return nil
	}

	added, removed := reconcile.Diff(previous, current)
	transitions.WithLabelValues("closed").Add(float64(len(added)))
	transitions.WithLabelValues("reopened").Add(float64(len(removed)))

	if !notify.ShouldNotify(added, removed) {
		c.log.Debug("no new closures or openings", zap.Int("closures", len(current)))
		if err := c.snapshots.Save(current); err != nil {
			cycles.WithLabelValues("save_error").Inc()
			return fmt.Errorf("save snapshot: %w", err)
		}
		cycles.WithLabelValues("ok").Inc()
		return nil
	}

	now := c.now()
	batch := notify.BuildBatch(added, removed)
	for _, m := range batch {
		c.log.Info("notification", zap.String("message", m))
	}

	roster, err := c.roster.Load()
	if err != nil {
		cycles.WithLabelValues("load_error").Inc()
		return fmt.Errorf("load roster: %w", err)
	}
	valid := roster.Active(now)
	activeSubscribers.Set(float64(len(valid)))

	// Persist the pruned roster before dispatch; delivery is at-most-once
	// and a send failure does not roll anything back.
	if err := c.roster.Save(valid); err != nil {
		cycles.WithLabelValues("save_error").Inc()
		return fmt.Errorf("save roster: %w", err)
	}

	c.transport.SendBatch(ctx, batch, valid.Numbers())
	messagesSent.Add(float64(len(batch) * len(valid)))

	if err := c.snapshots.Save(current); err != nil {
		cycles.WithLabelValues("save_error").Inc()
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := c.snapshots.Archive(current, now); err != nil {
		// Archive is a convenience copy; the authoritative snapshot is saved.
		c.log.Warn("archive write failed", zap.Error(err))
	}

	c.log.Info("notification cycle complete",
		zap.Int("added", len(added)),
		zap.Int("removed", len(removed)),
		zap.Int("recipients", len(valid)))
	cycles.WithLabelValues("ok").Inc()
	return nil
}
