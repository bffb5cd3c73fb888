package window

import (
	"time"

	"main/internal/model"
	"main/internal/model/enum"
)

// Weights combines the volume and price terms into one score.
// They are configuration values, not business constants.
type Weights struct {
	Volume float64
	Price  float64
}

// ScoreConfig is the anomaly policy for one scorer.
type ScoreConfig struct {
	Weights            Weights
	Threshold          float64
	MinBaselineWindows int
}

// Scorer evaluates sealed windows against their symbol baseline.
// Scoring is deterministic: identical windows and baselines always
// produce identical scores.
type Scorer struct {
	cfg ScoreConfig
}

// NewScorer creates a scorer with the given policy.
func NewScorer(cfg ScoreConfig) *Scorer {
	if cfg.MinBaselineWindows < 1 {
		cfg.MinBaselineWindows = 1
	}
	return &Scorer{cfg: cfg}
}

// Score evaluates a sealed window. It returns an alert and true iff the
// combined score crosses the threshold and the baseline holds enough
// history. The very first window of a symbol is never flagged.
func (s *Scorer) Score(w *Window, b *Baseline, now time.Time) (model.AnomalyAlert, bool) {
	if w.Empty() || !b.Ready(s.cfg.MinBaselineWindows) {
		return model.AnomalyAlert{}, false
	}

	volZ := b.VolumeZ(float64(w.VolumeSum))
	priceDev := b.PriceDeviation(w.MaxDeviation())

	volTerm := s.cfg.Weights.Volume * volZ
	priceTerm := s.cfg.Weights.Price * priceDev
	combined := volTerm + priceTerm
	if combined <= s.cfg.Threshold {
		return model.AnomalyAlert{}, false
	}

	reason := enum.ReasonCombined
	volAlone := volTerm > s.cfg.Threshold
	priceAlone := priceTerm > s.cfg.Threshold
	switch {
	case volAlone && !priceAlone:
		reason = enum.ReasonVolumeSpike
	case priceAlone && !volAlone:
		reason = enum.ReasonPriceDeviation
	}

	return model.AnomalyAlert{
		Symbol:      w.Symbol,
		WindowStart: w.Start,
		WindowEnd:   w.End,
		Score:       combined,
		VolumeScore: volZ,
		PriceScore:  priceDev,
		Reason:      reason,
		TriggeredAt: now,
	}, true
}
