package source

import (
	"testing"
	"time"
)

func TestBackoffGrowsAndCaps(t *testing.T) {
	b := Backoff{Min: 100 * time.Millisecond, Max: time.Second, Factor: 2}

	wants := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, want := range wants {
		if got := b.Next(i + 1); got != want {
			t.Fatalf("attempt %d: got %s want %s", i+1, got, want)
		}
	}
}

func TestBackoffJitterStaysBounded(t *testing.T) {
	b := DefaultBackoff()
	for attempt := 1; attempt <= 10; attempt++ {
		for i := 0; i < 50; i++ {
			wait := b.Next(attempt)
			if wait < time.Duration(float64(b.Min)*(1-b.Jitter)) {
				t.Fatalf("attempt %d: wait %s below jittered minimum", attempt, wait)
			}
			if wait > time.Duration(float64(b.Max)*(1+b.Jitter)) {
				t.Fatalf("attempt %d: wait %s above jittered maximum", attempt, wait)
			}
		}
	}
}

func TestBackoffDefaultsForZeroValues(t *testing.T) {
	var b Backoff
	if got := b.Next(1); got <= 0 {
		t.Fatalf("zero-value backoff should still wait, got %s", got)
	}
}
