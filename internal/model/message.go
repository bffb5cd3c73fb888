package model

import "main/internal/model/enum"

// Message is the tagged variant delivered through the fan-out hub.
// Exactly one of Tick or Alert is set, matching Channel.
type Message struct {
	Channel enum.Channel
	Tick    *TradeEvent
	Alert   *AnomalyAlert
}

// TickMessage wraps a trade event for the tick channel.
func TickMessage(ev *TradeEvent) Message {
	return Message{Channel: enum.ChannelTick, Tick: ev}
}

// AlertMessage wraps an anomaly alert for the anomaly channel.
func AlertMessage(al *AnomalyAlert) Message {
	return Message{Channel: enum.ChannelAnomaly, Alert: al}
}

// Symbol returns the symbol of the wrapped payload.
func (m Message) Symbol() string {
	switch m.Channel {
	case enum.ChannelTick:
		if m.Tick != nil {
			return m.Tick.Symbol
		}
	case enum.ChannelAnomaly:
		if m.Alert != nil {
			return m.Alert.Symbol
		}
	}
	return ""
}
