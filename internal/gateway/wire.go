package gateway

import (
	"time"

	"main/internal/model"
)

// tickMessage is the wire form of one live trade on the tick channel.
type tickMessage struct {
	Type      string    `json:"type"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
	Side      string    `json:"side"`
	EventTime time.Time `json:"eventTime"`
	// Snapshot marks the cached last trade sent on connect, before live
	// delivery begins.
	Snapshot bool `json:"snapshot,omitempty"`
}

// alertMessage is the wire form of one anomaly alert on the SSE channel.
type alertMessage struct {
	Type        string    `json:"type"`
	Symbol      string    `json:"symbol"`
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
	Score       float64   `json:"score"`
	Reason      string    `json:"reason"`
	TriggeredAt time.Time `json:"triggeredAt"`
}

func tickWire(ev *model.TradeEvent, snapshot bool) tickMessage {
	return tickMessage{
		Type:      "tick",
		Symbol:    ev.Symbol,
		Price:     ev.Price,
		Volume:    ev.Volume,
		Side:      ev.Side.String(),
		EventTime: ev.EventTime,
		Snapshot:  snapshot,
	}
}

func alertWire(al *model.AnomalyAlert) alertMessage {
	return alertMessage{
		Type:        "anomaly",
		Symbol:      al.Symbol,
		WindowStart: al.WindowStart,
		WindowEnd:   al.WindowEnd,
		Score:       al.Score,
		Reason:      al.Reason.String(),
		TriggeredAt: al.TriggeredAt,
	}
}
