package normalizer

import (
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
)

// tradePayload is the row image carried inside an insert change record.
// Prices travel as JSON strings to preserve decimal precision.
type tradePayload struct {
	EventID      string          `json:"eventId"`
	TradeID      string          `json:"tradeId"`
	Ticker       string          `json:"ticker"`
	Price        decimal.Decimal `json:"price"`
	Volume       int64           `json:"volume"`
	TradeType    string          `json:"tradeType"`
	MarketCode   string          `json:"marketCode"`
	CurrencyCode string          `json:"currencyCode"`
	EventTime    time.Time       `json:"eventTime"`
	Sequence     uint64          `json:"sequence"`
}

// Rejection classifies a change record the normalizer refused.
type Rejection struct {
	Kind   enum.RejectKind
	Offset int64
	Err    error
}

// Normalizer converts raw change records into canonical trade events.
// It is stateless and safe to run with multiple instances on disjoint
// source partitions. Malformed input is classified and counted, never fatal.
type Normalizer struct {
	metrics *obs.Metrics
}

// New creates a normalizer reporting rejections to the given metrics.
func New(metrics *obs.Metrics) *Normalizer {
	return &Normalizer{metrics: metrics}
}

// Normalize returns either a valid trade event or a classified rejection.
func (n *Normalizer) Normalize(rec model.ChangeRecord) (model.TradeEvent, *Rejection) {
	if rec.Operation != enum.OperationInsert {
		return model.TradeEvent{}, n.reject(enum.RejectNonInsert, rec.SourceOffset,
			errors.New("operation "+rec.Operation.String()))
	}

	var payload tradePayload
	if err := sonic.Unmarshal(rec.Payload, &payload); err != nil {
		return model.TradeEvent{}, n.reject(enum.RejectMalformed, rec.SourceOffset,
			errors.Wrap(err, "decode payload"))
	}

	symbol := strings.ToUpper(strings.TrimSpace(payload.Ticker))
	if symbol == "" {
		return model.TradeEvent{}, n.reject(enum.RejectMalformed, rec.SourceOffset,
			errors.New("empty ticker"))
	}

	side := enum.ParseSide(payload.TradeType)
	if !side.IsAvailable() {
		return model.TradeEvent{}, n.reject(enum.RejectMalformed, rec.SourceOffset,
			errors.New("unknown trade type: "+payload.TradeType))
	}

	price, err := strconv.ParseFloat(payload.Price.String(), 64)
	if err != nil {
		return model.TradeEvent{}, n.reject(enum.RejectMalformed, rec.SourceOffset,
			errors.Wrap(err, "parse price"))
	}
	if price <= 0 {
		return model.TradeEvent{}, n.reject(enum.RejectInvalidValue, rec.SourceOffset,
			errors.New("price must be > 0"))
	}
	if payload.Volume < 0 {
		return model.TradeEvent{}, n.reject(enum.RejectInvalidValue, rec.SourceOffset,
			errors.New("volume must be >= 0"))
	}

	eventTime := payload.EventTime
	if eventTime.IsZero() {
		eventTime = time.Now().UTC()
	}
	sequence := payload.Sequence
	if sequence == 0 && rec.SourceOffset > 0 {
		sequence = uint64(rec.SourceOffset)
	}

	return model.TradeEvent{
		EventID:      parseID(payload.EventID),
		TradeID:      parseID(payload.TradeID),
		Symbol:       symbol,
		Price:        price,
		Volume:       payload.Volume,
		Side:         side,
		MarketCode:   payload.MarketCode,
		CurrencyCode: payload.CurrencyCode,
		EventTime:    eventTime,
		Sequence:     sequence,
	}, nil
}

func (n *Normalizer) reject(kind enum.RejectKind, offset int64, err error) *Rejection {
	n.metrics.IncReject(kind)
	return &Rejection{Kind: kind, Offset: offset, Err: err}
}

// IDs are advisory; an absent or unparseable id degrades to uuid.Nil
// rather than rejecting an otherwise valid trade.
func parseID(s string) uuid.UUID {
	if s == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
