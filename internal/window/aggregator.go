package window

import (
	"time"

	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/obs"
)

// AlertSink receives alerts emitted on window seal.
type AlertSink interface {
	PublishAlert(alert model.AnomalyAlert)
}

// Config controls windowing for one aggregator.
type Config struct {
	// Size is the window length.
	Size time.Duration
	// Slide is the interval between window starts. Zero or Slide == Size
	// selects tumbling windows.
	Slide time.Duration
	// BaselineDecay is the EMA factor for trailing per-symbol stats.
	BaselineDecay float64
	// Score is the anomaly policy.
	Score ScoreConfig
}

func (c Config) slide() time.Duration {
	if c.Slide <= 0 || c.Slide > c.Size {
		return c.Size
	}
	return c.Slide
}

func (c Config) tumbling() bool {
	return c.slide() == c.Size
}

// When a symbol goes quiet across many window boundaries, only this many
// trailing empty windows are materialized and sealed.
const maxBackfillWindows = 32

type symbolState struct {
	lastSeq  uint64
	hasSeq   bool
	open     []*Window // ascending by start; tumbling keeps at most one
	baseline Baseline
}

// Aggregator owns the windows and baselines for one partition's symbol
// set. It is single-writer: exactly one partition worker calls Process,
// so no locking guards the window state.
type Aggregator struct {
	cfg     Config
	scorer  *Scorer
	sink    AlertSink
	metrics *obs.Metrics
	symbols map[string]*symbolState
}

// NewAggregator creates an aggregator emitting alerts to sink.
func NewAggregator(cfg Config, sink AlertSink, metrics *obs.Metrics) *Aggregator {
	if cfg.Size <= 0 {
		cfg.Size = time.Minute
	}
	return &Aggregator{
		cfg:     cfg,
		scorer:  NewScorer(cfg.Score),
		sink:    sink,
		metrics: metrics,
		symbols: make(map[string]*symbolState),
	}
}

// Process folds one trade event into its symbol's windows, sealing and
// scoring any windows the event's time has moved past. Duplicate
// sequences are dropped idempotently; gaps are logged and skipped.
func (a *Aggregator) Process(ev model.TradeEvent) {
	st := a.symbols[ev.Symbol]
	if st == nil {
		st = &symbolState{baseline: newBaseline(a.cfg.BaselineDecay)}
		a.symbols[ev.Symbol] = st
	}

	if st.hasSeq {
		if ev.Sequence <= st.lastSeq {
			a.metrics.IncDuplicate()
			return
		}
		if ev.Sequence > st.lastSeq+1 {
			a.metrics.IncGap()
			logs.Warnf("sequence gap for %s: %d -> %d, continuing with available data",
				ev.Symbol, st.lastSeq, ev.Sequence)
		}
	}
	st.lastSeq = ev.Sequence
	st.hasSeq = true

	now := time.Now().UTC()

	if len(st.open) > 0 && ev.EventTime.Before(st.open[0].Start) {
		a.metrics.IncLateEvent()
		logs.Debugf("late event for %s at %s dropped, open window starts %s",
			ev.Symbol, ev.EventTime.Format(time.RFC3339Nano), st.open[0].Start.Format(time.RFC3339Nano))
		return
	}

	a.advance(st, ev.Symbol, ev.EventTime, now)

	for _, w := range st.open {
		if w.Contains(ev.EventTime) {
			w.Apply(ev)
		}
	}

	a.metrics.ObserveTick(ev.EventTime, now)
}

// advance seals windows the event time has passed and opens the windows
// covering it.
func (a *Aggregator) advance(st *symbolState, symbol string, t, now time.Time) {
	var lastSealedEnd time.Time
	remaining := st.open[:0]
	for _, w := range st.open {
		if !w.End.After(t) {
			a.seal(st, w, now)
			lastSealedEnd = w.End
			continue
		}
		remaining = append(remaining, w)
	}
	st.open = remaining

	// Tumbling only: materialize the quiet windows between the last
	// sealed window and the event so their absence of trades is recorded
	// without feeding zeros into the baseline.
	if a.cfg.tumbling() && !lastSealedEnd.IsZero() {
		target := t.Truncate(a.cfg.Size)
		for i := 0; lastSealedEnd.Before(target) && i < maxBackfillWindows; i++ {
			empty := newWindow(symbol, lastSealedEnd, a.cfg.Size)
			a.seal(st, empty, now)
			lastSealedEnd = empty.End
		}
	}

	for _, start := range a.coveringStarts(t) {
		if !a.hasOpen(st, start) {
			st.open = append(st.open, newWindow(symbol, start, a.cfg.Size))
		}
	}
}

func (a *Aggregator) hasOpen(st *symbolState, start time.Time) bool {
	for _, w := range st.open {
		if w.Start.Equal(start) {
			return true
		}
	}
	return false
}

// coveringStarts returns the slide-aligned window starts whose interval
// covers t, ascending.
func (a *Aggregator) coveringStarts(t time.Time) []time.Time {
	slide := a.cfg.slide()
	starts := []time.Time{}
	for s := t.Truncate(slide); s.Add(a.cfg.Size).After(t); s = s.Add(-slide) {
		starts = append(starts, s)
	}
	// Reverse into ascending order.
	for i, j := 0, len(starts)-1; i < j; i, j = i+1, j-1 {
		starts[i], starts[j] = starts[j], starts[i]
	}
	return starts
}

func (a *Aggregator) seal(st *symbolState, w *Window, now time.Time) {
	if w.Sealed() {
		return
	}
	w.Seal()
	a.metrics.IncWindowSealed(w.Empty())

	if alert, ok := a.scorer.Score(w, &st.baseline, now); ok {
		a.metrics.IncAlert()
		if a.sink != nil {
			a.sink.PublishAlert(alert)
		}
	}
	if !w.Empty() {
		st.baseline.Observe(float64(w.VolumeSum), w.PriceStdDev())
	}
}

// SealAll seals and scores every open window. Called on shutdown so no
// window is left sealed-but-unscored.
func (a *Aggregator) SealAll(now time.Time) {
	for _, st := range a.symbols {
		for _, w := range st.open {
			a.seal(st, w, now)
		}
		st.open = st.open[:0]
	}
}

// SymbolCount returns the number of symbols with state in this aggregator.
func (a *Aggregator) SymbolCount() int {
	return len(a.symbols)
}
