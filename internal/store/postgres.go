package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"
	"gorm.io/gorm"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

const defaultQueryLimit = 1000

// TradeRow is the persisted form of one trade event.
type TradeRow struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	EventTime    time.Time `gorm:"index:idx_stock_trades_symbol_time,priority:2"`
	EventID      string    `gorm:"size:36"`
	TradeID      string    `gorm:"size:36"`
	Symbol       string    `gorm:"size:10;index:idx_stock_trades_symbol_time,priority:1"`
	Price        float64
	Volume       int64
	Side         string `gorm:"size:4"`
	MarketCode   string `gorm:"size:20"`
	CurrencyCode string `gorm:"size:3"`
	Sequence     uint64
}

// TableName keeps the original table name.
func (TradeRow) TableName() string {
	return "stock_trades"
}

// HistoryQuery filters a historical range read.
type HistoryQuery struct {
	Symbol     string
	Side       enum.Side
	MarketCode string
	Start      time.Time
	End        time.Time
	Limit      int
}

func (q HistoryQuery) apply(tx *gorm.DB) *gorm.DB {
	if q.Symbol != "" {
		tx = tx.Where("symbol = ?", q.Symbol)
	}
	if q.Side.IsAvailable() {
		tx = tx.Where("side = ?", q.Side.String())
	}
	if q.MarketCode != "" {
		tx = tx.Where("market_code = ?", q.MarketCode)
	}
	if !q.Start.IsZero() {
		tx = tx.Where("event_time >= ?", q.Start)
	}
	if !q.End.IsZero() {
		tx = tx.Where("event_time < ?", q.End)
	}
	return tx
}

// History is the historical store adapter: append-only trade writes and
// range-query reads. It sits outside the live pipeline; historical reads
// are the correctness-preserving path when live feeds drop.
type History struct {
	db *gorm.DB
}

// NewHistory wraps an open gorm connection.
func NewHistory(db *gorm.DB) *History {
	return &History{db: db}
}

// AutoMigrate creates or updates the trades table.
func (h *History) AutoMigrate() error {
	if h == nil || h.db == nil {
		return exception.ErrNilInstance
	}
	return h.db.AutoMigrate(&TradeRow{})
}

// Append persists a batch of trade events.
func (h *History) Append(ctx context.Context, events []model.TradeEvent) error {
	if h == nil || h.db == nil {
		return exception.ErrNilInstance
	}
	if len(events) == 0 {
		return nil
	}
	rows := make([]TradeRow, 0, len(events))
	for i := range events {
		rows = append(rows, rowFromEvent(&events[i]))
	}
	if err := h.db.WithContext(ctx).CreateInBatches(rows, 500).Error; err != nil {
		return errors.Wrap(err, "append trades")
	}
	return nil
}

// Query reads trades matching the filters, newest first.
func (h *History) Query(ctx context.Context, q HistoryQuery) ([]model.TradeEvent, error) {
	if h == nil || h.db == nil {
		return nil, exception.ErrNilInstance
	}
	limit := q.Limit
	if limit <= 0 || limit > defaultQueryLimit {
		limit = defaultQueryLimit
	}

	tx := q.apply(h.db.WithContext(ctx).Model(&TradeRow{}))

	var rows []TradeRow
	if err := tx.Order("event_time DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query trades")
	}

	events := make([]model.TradeEvent, 0, len(rows))
	for i := range rows {
		events = append(events, eventFromRow(&rows[i]))
	}
	return events, nil
}

func rowFromEvent(ev *model.TradeEvent) TradeRow {
	return TradeRow{
		EventTime:    ev.EventTime,
		EventID:      ev.EventID.String(),
		TradeID:      ev.TradeID.String(),
		Symbol:       ev.Symbol,
		Price:        ev.Price,
		Volume:       ev.Volume,
		Side:         ev.Side.String(),
		MarketCode:   ev.MarketCode,
		CurrencyCode: ev.CurrencyCode,
		Sequence:     ev.Sequence,
	}
}

func eventFromRow(row *TradeRow) model.TradeEvent {
	eventID, _ := uuid.Parse(row.EventID)
	tradeID, _ := uuid.Parse(row.TradeID)
	return model.TradeEvent{
		EventID:      eventID,
		TradeID:      tradeID,
		Symbol:       row.Symbol,
		Price:        row.Price,
		Volume:       row.Volume,
		Side:         enum.ParseSide(row.Side),
		MarketCode:   row.MarketCode,
		CurrencyCode: row.CurrencyCode,
		EventTime:    row.EventTime,
		Sequence:     row.Sequence,
	}
}
