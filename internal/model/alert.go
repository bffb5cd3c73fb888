package model

import (
	"time"

	"main/internal/model/enum"
)

// AnomalyAlert is emitted at most once per sealed window whose combined
// score crosses the configured threshold. Never mutated after creation.
type AnomalyAlert struct {
	Symbol      string
	WindowStart time.Time
	WindowEnd   time.Time
	Score       float64
	VolumeScore float64
	PriceScore  float64
	Reason      enum.AlertReason
	TriggeredAt time.Time
}
