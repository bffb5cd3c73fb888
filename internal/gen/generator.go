package gen

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"

	"main/internal/model"
	"main/internal/model/enum"
)

// Config bounds the synthetic trade stream.
type Config struct {
	Tickers      []string
	MarketCode   string
	CurrencyCode string
	PriceMin     float64
	PriceMax     float64
	VolumeMin    int64
	VolumeMax    int64
	// Seed fixes the random stream for reproducible runs. Zero seeds
	// from the clock.
	Seed int64
}

// Generator creates synthetic trade events with per-symbol monotonic
// sequences, so downstream duplicate and gap detection sees a
// well-formed stream by default.
type Generator struct {
	cfg  Config
	rng  *rand.Rand
	seqs map[string]uint64
}

// NewGenerator validates the config and creates a generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if len(cfg.Tickers) == 0 {
		return nil, errors.New("generator needs at least one ticker")
	}
	tickers := make([]string, 0, len(cfg.Tickers))
	for _, t := range cfg.Tickers {
		if s := strings.ToUpper(strings.TrimSpace(t)); s != "" {
			tickers = append(tickers, s)
		}
	}
	if len(tickers) == 0 {
		return nil, errors.New("generator needs at least one ticker")
	}
	cfg.Tickers = tickers

	if cfg.MarketCode == "" {
		cfg.MarketCode = "NASDAQ"
	}
	if cfg.CurrencyCode == "" {
		cfg.CurrencyCode = "USD"
	}
	cfg.CurrencyCode = strings.ToUpper(cfg.CurrencyCode)
	if cfg.PriceMin <= 0 {
		cfg.PriceMin = 10
	}
	if cfg.PriceMax <= cfg.PriceMin {
		cfg.PriceMax = cfg.PriceMin + 990
	}
	if cfg.VolumeMin <= 0 {
		cfg.VolumeMin = 1
	}
	if cfg.VolumeMax < cfg.VolumeMin {
		cfg.VolumeMax = cfg.VolumeMin + 9999
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
		seqs: make(map[string]uint64),
	}, nil
}

// Next creates one trade at the given event time.
func (g *Generator) Next(eventTime time.Time) model.TradeEvent {
	ticker := g.cfg.Tickers[g.rng.Intn(len(g.cfg.Tickers))]
	g.seqs[ticker]++

	price := g.cfg.PriceMin + g.rng.Float64()*(g.cfg.PriceMax-g.cfg.PriceMin)
	price = math.Round(price*100) / 100

	volume := g.cfg.VolumeMin + g.rng.Int63n(g.cfg.VolumeMax-g.cfg.VolumeMin+1)

	side := enum.SideBuy
	if g.rng.Intn(2) == 1 {
		side = enum.SideSell
	}

	return model.TradeEvent{
		EventID:      uuid.New(),
		TradeID:      uuid.New(),
		Symbol:       ticker,
		Price:        price,
		Volume:       volume,
		Side:         side,
		MarketCode:   g.cfg.MarketCode,
		CurrencyCode: g.cfg.CurrencyCode,
		EventTime:    eventTime.UTC(),
		Sequence:     g.seqs[ticker],
	}
}

// Batch creates count trades with event times spread randomly across
// the spread duration after base, ordered by event time.
func (g *Generator) Batch(base time.Time, count int, spread time.Duration) []model.TradeEvent {
	if count <= 0 {
		return nil
	}
	if spread <= 0 {
		spread = time.Second
	}
	offsets := make([]time.Duration, count)
	for i := range offsets {
		offsets[i] = time.Duration(g.rng.Int63n(int64(spread)))
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	trades := make([]model.TradeEvent, 0, count)
	for _, off := range offsets {
		trades = append(trades, g.Next(base.Add(off)))
	}
	return trades
}
