package model

import (
	"time"

	"github.com/google/uuid"

	"main/internal/model/enum"
)

// TradeEvent is one executed trade in canonical form.
// Instances are immutable once constructed by the normalizer.
type TradeEvent struct {
	EventID      uuid.UUID
	TradeID      uuid.UUID
	Symbol       string
	Price        float64
	Volume       int64
	Side         enum.Side
	MarketCode   string
	CurrencyCode string
	EventTime    time.Time
	// Sequence is monotonic per symbol. Duplicates are dropped
	// idempotently, gaps are logged and skipped.
	Sequence uint64
}

// ChangeRecord wraps one raw change-log entry before normalization.
// The payload is the row image as JSON; only inserts produce live ticks.
type ChangeRecord struct {
	Operation    enum.Operation
	SourceOffset int64
	Payload      []byte
}
