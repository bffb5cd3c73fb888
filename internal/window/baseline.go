package window

import "math"

// Baseline tracks trailing exponential statistics over prior sealed
// windows of one symbol: mean and variance of window volumes, and a
// volatility estimate from window price spread. Empty windows are
// excluded so zero aggregates cannot poison future scores.
type Baseline struct {
	decay float64

	windows    int
	volMean    float64
	volVar     float64
	volatility float64
}

func newBaseline(decay float64) Baseline {
	if decay <= 0 || decay > 1 {
		decay = 0.3
	}
	return Baseline{decay: decay}
}

// Windows returns the number of non-empty windows folded in so far.
func (b *Baseline) Windows() int {
	return b.windows
}

// Ready reports whether enough history exists to score against.
func (b *Baseline) Ready(minWindows int) bool {
	if minWindows < 1 {
		minWindows = 1
	}
	return b.windows >= minWindows
}

// Observe folds one sealed non-empty window into the trailing stats.
func (b *Baseline) Observe(volume, priceStdDev float64) {
	if b.windows == 0 {
		b.volMean = volume
		b.volVar = 0
		b.volatility = priceStdDev
		b.windows++
		return
	}
	// Exponentially weighted mean and variance (West 1979).
	diff := volume - b.volMean
	incr := b.decay * diff
	b.volMean += incr
	b.volVar = (1 - b.decay) * (b.volVar + diff*incr)

	b.volatility = (1-b.decay)*b.volatility + b.decay*priceStdDev
	b.windows++
}

// VolumeZ returns the z-score of a window volume against the trailing
// mean and variance. With degenerate variance, any departure from the
// mean scores as a fixed large value rather than infinity.
func (b *Baseline) VolumeZ(volume float64) float64 {
	const degenerateScore = 10.0
	diff := volume - b.volMean
	std := math.Sqrt(b.volVar)
	if std < 1e-9 {
		if math.Abs(diff) < 1e-9 {
			return 0
		}
		if diff < 0 {
			return -degenerateScore
		}
		return degenerateScore
	}
	return diff / std
}

// PriceDeviation normalizes a window's max move from its open by the
// trailing volatility estimate. Near-zero volatility with a real move
// scores as a fixed large value.
func (b *Baseline) PriceDeviation(maxDeviation float64) float64 {
	const degenerateScore = 10.0
	if maxDeviation <= 0 {
		return 0
	}
	if b.volatility < 1e-9 {
		return degenerateScore
	}
	return maxDeviation / b.volatility
}
