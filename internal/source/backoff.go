package source

import (
	"math/rand"
	"time"
)

// Backoff defines retry pacing for an unavailable change-log source.
type Backoff struct {
	Min    time.Duration
	Max    time.Duration
	Factor float64
	Jitter float64
}

// DefaultBackoff provides conservative reconnect defaults.
func DefaultBackoff() Backoff {
	return Backoff{
		Min:    250 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2.0,
		Jitter: 0.2,
	}
}

// Next returns the wait before the given retry attempt (1-based).
func (b Backoff) Next(attempt int) time.Duration {
	min := b.Min
	if min <= 0 {
		min = 100 * time.Millisecond
	}
	max := b.Max
	if max <= 0 {
		max = 5 * time.Second
	}
	factor := b.Factor
	if factor <= 1 {
		factor = 2.0
	}

	wait := float64(min)
	for i := 1; i < attempt && wait < float64(max); i++ {
		wait *= factor
	}
	if wait > float64(max) {
		wait = float64(max)
	}

	jitter := b.Jitter
	if jitter <= 0 {
		return time.Duration(wait)
	}
	if jitter > 1 {
		jitter = 1
	}
	delta := wait * jitter
	return time.Duration(wait - delta + rand.Float64()*2*delta)
}
