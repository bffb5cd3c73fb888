package gateway

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/store"
)

const defaultHistoryMinutes = 60

// historyResponse is the REST envelope for a range query.
type historyResponse struct {
	Data    []historyTrade `json:"data"`
	Count   int            `json:"count"`
	Filters historyFilters `json:"filters"`
}

type historyFilters struct {
	Ticker     string `json:"ticker,omitempty"`
	Duration   int    `json:"duration"`
	TradeType  string `json:"tradeType,omitempty"`
	MarketCode string `json:"marketCode,omitempty"`
}

type historyTrade struct {
	EventID      string    `json:"eventId"`
	TradeID      string    `json:"tradeId"`
	Ticker       string    `json:"ticker"`
	Price        float64   `json:"price"`
	Volume       int64     `json:"volume"`
	TradeType    string    `json:"tradeType"`
	MarketCode   string    `json:"marketCode"`
	CurrencyCode string    `json:"currencyCode"`
	EventTime    time.Time `json:"eventTime"`
}

// handleHistory serves GET /api/v1/trades: the last N minutes of trades
// matching the filters, newest first. It reads the historical store
// directly and never touches the live pipeline.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		http.Error(w, "history store unavailable", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()

	minutes := defaultHistoryMinutes
	if raw := query.Get("duration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "duration must be a positive integer of minutes", http.StatusBadRequest)
			return
		}
		minutes = n
	}

	ticker := strings.ToUpper(strings.TrimSpace(query.Get("ticker")))
	tradeType := strings.TrimSpace(query.Get("tradeType"))
	side := enum.SideUnknown
	if tradeType != "" {
		side = enum.ParseSide(tradeType)
		if !side.IsAvailable() {
			http.Error(w, "tradeType must be BUY or SELL", http.StatusBadRequest)
			return
		}
	}
	marketCode := strings.TrimSpace(query.Get("marketCode"))

	now := time.Now().UTC()
	events, err := s.history.Query(r.Context(), store.HistoryQuery{
		Symbol:     ticker,
		Side:       side,
		MarketCode: marketCode,
		Start:      now.Add(-time.Duration(minutes) * time.Minute),
		End:        now,
	})
	if err != nil {
		logs.Errorf("history query failed: %+v", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}

	filters := historyFilters{Ticker: ticker, Duration: minutes, MarketCode: marketCode}
	if side.IsAvailable() {
		filters.TradeType = side.String()
	}
	resp := historyResponse{
		Data:    make([]historyTrade, 0, len(events)),
		Count:   len(events),
		Filters: filters,
	}
	for i := range events {
		resp.Data = append(resp.Data, historyTradeWire(&events[i]))
	}

	data, err := sonic.Marshal(resp)
	if err != nil {
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func historyTradeWire(ev *model.TradeEvent) historyTrade {
	return historyTrade{
		EventID:      ev.EventID.String(),
		TradeID:      ev.TradeID.String(),
		Ticker:       ev.Symbol,
		Price:        ev.Price,
		Volume:       ev.Volume,
		TradeType:    ev.Side.String(),
		MarketCode:   ev.MarketCode,
		CurrencyCode: ev.CurrencyCode,
		EventTime:    ev.EventTime,
	}
}
