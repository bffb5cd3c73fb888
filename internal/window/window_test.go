package window

import (
	"math"
	"testing"
	"time"

	"main/internal/model"
)

func tradeAt(symbol string, price float64, volume int64, at time.Time) model.TradeEvent {
	return model.TradeEvent{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		EventTime: at,
	}
}

func TestWindowAggregatesMatchBatchReference(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	w := newWindow("ACME", start, time.Minute)

	prices := []float64{101.5, 99.25, 103.75, 100.0, 98.5, 102.2}
	volumes := []int64{10, 25, 5, 40, 15, 30}
	for i := range prices {
		w.Apply(tradeAt("ACME", prices[i], volumes[i], start.Add(time.Duration(i)*time.Second)))
	}

	if w.Count != int64(len(prices)) {
		t.Fatalf("count: got %d want %d", w.Count, len(prices))
	}
	var volumeSum int64
	var priceSum, mean float64
	min, max := prices[0], prices[0]
	for i, p := range prices {
		volumeSum += volumes[i]
		priceSum += p
		mean += p
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	mean /= float64(len(prices))

	if w.VolumeSum != volumeSum {
		t.Fatalf("volume sum: got %d want %d", w.VolumeSum, volumeSum)
	}
	if w.PriceSum != priceSum {
		t.Fatalf("price sum: got %v want %v", w.PriceSum, priceSum)
	}
	if w.Min != min || w.Max != max {
		t.Fatalf("min/max: got %v/%v want %v/%v", w.Min, w.Max, min, max)
	}
	if w.Open != prices[0] || w.Last != prices[len(prices)-1] {
		t.Fatalf("open/last: got %v/%v want %v/%v", w.Open, w.Last, prices[0], prices[len(prices)-1])
	}
	if math.Abs(w.PriceMean()-mean) > 1e-9 {
		t.Fatalf("mean: got %v want %v", w.PriceMean(), mean)
	}

	// Welford against the two-pass population variance.
	var variance float64
	for _, p := range prices {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(len(prices))
	if math.Abs(w.PriceVariance()-variance) > 1e-9 {
		t.Fatalf("variance: got %v want %v", w.PriceVariance(), variance)
	}

	var maxDev float64
	for _, p := range prices {
		if dev := math.Abs(p - prices[0]); dev > maxDev {
			maxDev = dev
		}
	}
	if math.Abs(w.MaxDeviation()-maxDev) > 1e-9 {
		t.Fatalf("max deviation: got %v want %v", w.MaxDeviation(), maxDev)
	}
}

func TestWindowContainsHalfOpenInterval(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	w := newWindow("ACME", start, time.Minute)

	if !w.Contains(start) {
		t.Fatal("start should be inside the window")
	}
	if !w.Contains(start.Add(59 * time.Second)) {
		t.Fatal("last second should be inside the window")
	}
	if w.Contains(start.Add(time.Minute)) {
		t.Fatal("end boundary belongs to the next window")
	}
	if w.Contains(start.Add(-time.Nanosecond)) {
		t.Fatal("times before start are outside the window")
	}
}

func TestSealedWindowIgnoresTrades(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	w := newWindow("ACME", start, time.Minute)
	w.Apply(tradeAt("ACME", 100, 10, start))
	w.Seal()

	w.Apply(tradeAt("ACME", 200, 99, start.Add(time.Second)))
	if w.Count != 1 || w.VolumeSum != 10 {
		t.Fatalf("sealed window mutated: count=%d volume=%d", w.Count, w.VolumeSum)
	}
	if !w.Sealed() {
		t.Fatal("window should stay sealed")
	}
}
