package ingest

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/hub"
	"main/internal/normalizer"
	"main/internal/obs"
	"main/internal/source"
)

// RunnerConfig controls the ingestion loop.
type RunnerConfig struct {
	// GracePeriod is how long the source may stay unavailable before
	// live subscribers are disconnected gracefully.
	GracePeriod time.Duration
	Backoff     source.Backoff
}

// Runner drives the change-log read loop: fetch, normalize, publish to
// the bus, commit. Publishing blocks when a partition queue is full, so
// backpressure reaches the change log instead of dropping events.
type Runner struct {
	cfg        RunnerConfig
	reader     source.Reader
	normalizer *normalizer.Normalizer
	bus        *bus.Bus
	hub        *hub.Hub
	metrics    *obs.Metrics
}

// NewRunner wires the ingestion loop.
func NewRunner(cfg RunnerConfig, reader source.Reader, norm *normalizer.Normalizer, b *bus.Bus, h *hub.Hub, metrics *obs.Metrics) *Runner {
	if cfg.Backoff == (source.Backoff{}) {
		cfg.Backoff = source.DefaultBackoff()
	}
	return &Runner{
		cfg:        cfg,
		reader:     reader,
		normalizer: norm,
		bus:        b,
		hub:        h,
		metrics:    metrics,
	}
}

// Run consumes the change log until the context is cancelled. Source
// unavailability is retried with backoff; past the grace period the hub
// drains its subscribers while retries continue.
func (r *Runner) Run(ctx context.Context) error {
	var (
		attempt   int
		downSince time.Time
		drained   bool
	)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rec, err := r.reader.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			attempt++
			r.metrics.IncSourceRetry()
			if downSince.IsZero() {
				downSince = time.Now()
			}
			if !drained && r.cfg.GracePeriod > 0 && time.Since(downSince) > r.cfg.GracePeriod {
				logs.Warnf("change log unavailable for %s, draining live subscribers", r.cfg.GracePeriod)
				r.hub.CloseAll()
				drained = true
			}
			wait := r.cfg.Backoff.Next(attempt)
			logs.Warnf("change log fetch failed (attempt %d, retry in %s): %+v", attempt, wait, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		attempt = 0
		downSince = time.Time{}
		drained = false

		if ev, rejection := r.normalizer.Normalize(rec); rejection == nil {
			if err := r.bus.Publish(ctx, ev); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
		} else {
			logs.Debugf("change record at offset %d rejected (%s): %+v",
				rejection.Offset, rejection.Kind, rejection.Err)
		}

		if err := r.reader.Commit(ctx); err != nil && ctx.Err() == nil {
			logs.Warnf("offset commit failed, redelivery possible: %+v", err)
		}
	}
}
