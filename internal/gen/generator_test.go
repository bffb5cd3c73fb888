package gen

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func testConfig() Config {
	return Config{
		Tickers:      []string{"acme", "GOOG", " msft "},
		MarketCode:   "NASDAQ",
		CurrencyCode: "usd",
		PriceMin:     50,
		PriceMax:     150,
		VolumeMin:    1,
		VolumeMax:    1000,
		Seed:         42,
	}
}

func TestGeneratorRequiresTickers(t *testing.T) {
	if _, err := NewGenerator(Config{}); err == nil {
		t.Fatal("empty ticker list should be rejected")
	}
	if _, err := NewGenerator(Config{Tickers: []string{"  ", ""}}); err == nil {
		t.Fatal("blank tickers should be rejected")
	}
}

func TestGeneratedTradesStayInBounds(t *testing.T) {
	g, err := NewGenerator(testConfig())
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	valid := map[string]bool{"ACME": true, "GOOG": true, "MSFT": true}
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 500; i++ {
		ev := g.Next(now)
		if !valid[ev.Symbol] {
			t.Fatalf("unexpected symbol %q", ev.Symbol)
		}
		if ev.Price < 50 || ev.Price > 150 {
			t.Fatalf("price out of range: %v", ev.Price)
		}
		if ev.Volume < 1 || ev.Volume > 1000 {
			t.Fatalf("volume out of range: %d", ev.Volume)
		}
		if !ev.Side.IsAvailable() {
			t.Fatalf("side not set: %s", ev.Side)
		}
		if ev.CurrencyCode != "USD" {
			t.Fatalf("currency should be uppercased: %s", ev.CurrencyCode)
		}
		if ev.EventID == uuid.Nil || ev.TradeID == uuid.Nil {
			t.Fatal("ids must be assigned")
		}
	}
}

func TestSequencesAreMonotonicPerSymbol(t *testing.T) {
	g, err := NewGenerator(testConfig())
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	last := make(map[string]uint64)
	now := time.Now().UTC()
	for i := 0; i < 1000; i++ {
		ev := g.Next(now)
		if ev.Sequence != last[ev.Symbol]+1 {
			t.Fatalf("%s sequence jumped: %d after %d", ev.Symbol, ev.Sequence, last[ev.Symbol])
		}
		last[ev.Symbol] = ev.Sequence
	}
}

func TestBatchIsOrderedWithinSpread(t *testing.T) {
	g, err := NewGenerator(testConfig())
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	spread := 10 * time.Second
	trades := g.Batch(base, 200, spread)
	if len(trades) != 200 {
		t.Fatalf("batch size: got %d want 200", len(trades))
	}

	prev := base
	for _, ev := range trades {
		if ev.EventTime.Before(base) || !ev.EventTime.Before(base.Add(spread)) {
			t.Fatalf("event time %s outside [%s, %s)", ev.EventTime, base, base.Add(spread))
		}
		if ev.EventTime.Before(prev) {
			t.Fatalf("batch not ordered by event time: %s after %s", ev.EventTime, prev)
		}
		prev = ev.EventTime
	}
}

func TestSeededGeneratorIsReproducible(t *testing.T) {
	a, err := NewGenerator(testConfig())
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	b, err := NewGenerator(testConfig())
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	now := time.Now().UTC()
	for i := 0; i < 100; i++ {
		x, y := a.Next(now), b.Next(now)
		if x.Symbol != y.Symbol || x.Price != y.Price || x.Volume != y.Volume || x.Sequence != y.Sequence {
			t.Fatalf("seeded runs diverged at %d: %+v vs %+v", i, x, y)
		}
	}
}
