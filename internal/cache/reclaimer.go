package cache

import (
	"context"
	"log/slog"
	"time"
)

// Reclaimer sweeps expired records on a fixed interval until its context is
// cancelled. Each sweep is idempotent and safe alongside concurrent appends
// and reads; a record reclaimed just before a read simply yields ErrNotFound.
type Reclaimer struct {
	cache    *FileCache
	interval time.Duration
	onSweep  func(removed int)
}

// NewReclaimer builds a reclaimer for the given cache. A non-positive
// interval falls back to DefaultSweepInterval. onSweep, if non-nil, is
// invoked after every sweep with the number of removed records (used for
// metrics).
func NewReclaimer(c *FileCache, interval time.Duration, onSweep func(removed int)) *Reclaimer {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Reclaimer{cache: c, interval: interval, onSweep: onSweep}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (r *Reclaimer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := r.cache.Reclaim()
			if err != nil {
				slog.Warn("cache: reclaim sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("cache: reclaimed expired sessions", "removed", removed)
			}
			if r.onSweep != nil {
				r.onSweep(removed)
			}
		}
	}
}
