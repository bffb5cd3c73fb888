package source

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"

	"main/internal/model"
	"main/internal/model/enum"
)

// changeEnvelope is the wire form of one change record on the log:
// the operation kind plus the row image.
type changeEnvelope struct {
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload"`
}

// insertPayload is the writer-side row image. The reader-side twin lives
// in the normalizer; prices travel as strings to keep decimal precision.
type insertPayload struct {
	EventID      string    `json:"eventId"`
	TradeID      string    `json:"tradeId"`
	Ticker       string    `json:"ticker"`
	Price        string    `json:"price"`
	Volume       int64     `json:"volume"`
	TradeType    string    `json:"tradeType"`
	MarketCode   string    `json:"marketCode"`
	CurrencyCode string    `json:"currencyCode"`
	EventTime    time.Time `json:"eventTime"`
	Sequence     uint64    `json:"sequence"`
}

// EncodeInsert serializes a trade event as an insert change envelope.
func EncodeInsert(ev model.TradeEvent) ([]byte, error) {
	payload, err := sonic.Marshal(insertPayload{
		EventID:      ev.EventID.String(),
		TradeID:      ev.TradeID.String(),
		Ticker:       ev.Symbol,
		Price:        strconv.FormatFloat(ev.Price, 'f', 2, 64),
		Volume:       ev.Volume,
		TradeType:    ev.Side.String(),
		MarketCode:   ev.MarketCode,
		CurrencyCode: ev.CurrencyCode,
		EventTime:    ev.EventTime,
		Sequence:     ev.Sequence,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode insert payload")
	}
	return sonic.Marshal(changeEnvelope{Op: enum.OperationInsert.String(), Payload: payload})
}

// decodeEnvelope converts one raw log message into a change record.
// An undecodable envelope is passed through with an unknown operation so
// the normalizer classifies and counts it instead of losing it silently.
func decodeEnvelope(value []byte, offset int64) model.ChangeRecord {
	var env changeEnvelope
	if err := sonic.Unmarshal(value, &env); err != nil {
		return model.ChangeRecord{
			Operation:    enum.OperationUnknown,
			SourceOffset: offset,
			Payload:      value,
		}
	}
	return model.ChangeRecord{
		Operation:    enum.ParseOperation(env.Op),
		SourceOffset: offset,
		Payload:      env.Payload,
	}
}
