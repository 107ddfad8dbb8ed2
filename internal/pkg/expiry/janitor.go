package expiry

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper is anything that can purge its expired entries.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Janitor periodically sweeps a set of named stores.
type Janitor struct {
	interval time.Duration
	now      func() time.Time
	stores   map[string]Sweeper
	logger   *slog.Logger
}

// NewJanitor creates a janitor sweeping every interval.
func NewJanitor(interval time.Duration, logger *slog.Logger, opts ...Option) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Janitor{
		interval: interval,
		now:      o.now,
		stores:   make(map[string]Sweeper),
		logger:   logger,
	}
}

// Register adds a store under name. It must be called before Run.
func (j *Janitor) Register(name string, s Sweeper) {
	j.stores[name] = s
}

// SweepOnce sweeps every registered store and returns the total purged.
func (j *Janitor) SweepOnce() int {
	now := j.now()
	total := 0
	for name, s := range j.stores {
		if n := s.Sweep(now); n > 0 {
			j.logger.Debug("purged expired entries", "store", name, "count", n)
			total += n
		}
	}
	return total
}

// Run sweeps on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.SweepOnce()
		}
	}
}
