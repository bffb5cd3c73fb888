package window

import (
	"math"
	"time"

	"main/internal/model"
)

// Window accumulates per-symbol aggregates over one time interval.
// Only the single aggregator owning the symbol mutates a window;
// Seal freezes it.
type Window struct {
	Symbol string
	Start  time.Time
	End    time.Time

	Count     int64
	VolumeSum int64
	PriceSum  float64
	Min       float64
	Max       float64
	Open      float64
	Last      float64

	// Welford running variance over trade prices.
	mean float64
	m2   float64

	// Largest |price - Open| seen in the window.
	maxDeviation float64

	sealed bool
}

func newWindow(symbol string, start time.Time, size time.Duration) *Window {
	return &Window{
		Symbol: symbol,
		Start:  start,
		End:    start.Add(size),
	}
}

// Contains reports whether t falls inside [Start, End).
func (w *Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Apply folds one trade into the running aggregates.
func (w *Window) Apply(ev model.TradeEvent) {
	if w.sealed {
		return
	}
	if w.Count == 0 {
		w.Open = ev.Price
		w.Min = ev.Price
		w.Max = ev.Price
	} else {
		if ev.Price < w.Min {
			w.Min = ev.Price
		}
		if ev.Price > w.Max {
			w.Max = ev.Price
		}
	}
	w.Count++
	w.VolumeSum += ev.Volume
	w.PriceSum += ev.Price
	w.Last = ev.Price

	delta := ev.Price - w.mean
	w.mean += delta / float64(w.Count)
	w.m2 += delta * (ev.Price - w.mean)

	if dev := math.Abs(ev.Price - w.Open); dev > w.maxDeviation {
		w.maxDeviation = dev
	}
}

// Empty reports whether no trades landed in the window.
func (w *Window) Empty() bool {
	return w.Count == 0
}

// Sealed reports whether the window has been frozen.
func (w *Window) Sealed() bool {
	return w.sealed
}

// Seal freezes the aggregates. Idempotent.
func (w *Window) Seal() {
	w.sealed = true
}

// PriceMean returns the running mean of trade prices.
func (w *Window) PriceMean() float64 {
	return w.mean
}

// PriceVariance returns the population variance of trade prices.
func (w *Window) PriceVariance() float64 {
	if w.Count == 0 {
		return 0
	}
	return w.m2 / float64(w.Count)
}

// PriceStdDev returns the population standard deviation of trade prices.
func (w *Window) PriceStdDev() float64 {
	return math.Sqrt(w.PriceVariance())
}

// MaxDeviation returns the largest absolute move from the opening price.
func (w *Window) MaxDeviation() float64 {
	return w.maxDeviation
}
