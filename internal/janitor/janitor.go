// Package janitor applies automatic retention: items older than the
// configured age and items beyond the history limit are removed on a
// schedule. Pinned items are never touched.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"go.klb.dev/clipkeep/internal/notify"
)

const (
	DefaultInterval   = time.Hour
	DefaultMaxAgeDays = 30
	DefaultMaxItems   = 1000
)

// Purger is the subset of the capture manager the janitor drives.
type Purger interface {
	PurgeOlderThan(ctx context.Context, days int) (int, error)
	TrimTo(ctx context.Context, keep int) (int, error)
}

// Config controls a Janitor. Zero MaxAgeDays or MaxItems disables that rule.
type Config struct {
	Interval   time.Duration
	MaxAgeDays int
	MaxItems   int
}

// Janitor runs retention passes.
type Janitor struct {
	p   Purger
	pub *notify.Broker
	cfg Config
}

// New returns a Janitor. pub may be nil.
func New(p Purger, pub *notify.Broker, cfg Config) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Janitor{p: p, pub: pub, cfg: cfg}
}

// Run performs a pass immediately and then every Interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	if j.cfg.MaxAgeDays <= 0 && j.cfg.MaxItems <= 0 {
		slog.Info("automatic cleanup disabled")
		<-ctx.Done()
		return nil
	}
	slog.Info("automatic cleanup enabled",
		"max_age_days", j.cfg.MaxAgeDays,
		"max_items", j.cfg.MaxItems,
		"interval", j.cfg.Interval,
	)
	t := time.NewTicker(j.cfg.Interval)
	defer t.Stop()
	for {
		j.Pass(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// Pass runs one retention pass and returns the number of items removed.
// Failures are logged; a failing rule does not prevent the other.
func (j *Janitor) Pass(ctx context.Context) int {
	removed := 0
	if j.cfg.MaxAgeDays > 0 {
		n, err := j.p.PurgeOlderThan(ctx, j.cfg.MaxAgeDays)
		if err != nil {
			slog.Error("age cleanup failed", "err", err)
		}
		removed += n
	}
	if j.cfg.MaxItems > 0 {
		n, err := j.p.TrimTo(ctx, j.cfg.MaxItems)
		if err != nil {
			slog.Error("history trim failed", "err", err)
		}
		removed += n
	}
	if removed > 0 && j.pub != nil {
		j.pub.Changed(notify.ReasonCleanup, "")
	}
	return removed
}
