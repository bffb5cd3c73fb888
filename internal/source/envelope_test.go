package source

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"main/internal/model"
	"main/internal/model/enum"
)

func TestEncodeInsertRoundTrip(t *testing.T) {
	orig := model.TradeEvent{
		EventID:      uuid.New(),
		TradeID:      uuid.New(),
		Symbol:       "ACME",
		Price:        101.25,
		Volume:       500,
		Side:         enum.SideSell,
		MarketCode:   "NASDAQ",
		CurrencyCode: "USD",
		EventTime:    time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		Sequence:     42,
	}

	value, err := EncodeInsert(orig)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	rec := decodeEnvelope(value, 7)
	if rec.Operation != enum.OperationInsert {
		t.Fatalf("operation: got %s want insert", rec.Operation)
	}
	if rec.SourceOffset != 7 {
		t.Fatalf("offset: got %d want 7", rec.SourceOffset)
	}
	if len(rec.Payload) == 0 {
		t.Fatal("payload missing")
	}
}

func TestDecodeEnvelopeUpdateOperation(t *testing.T) {
	rec := decodeEnvelope([]byte(`{"op":"update","payload":{"ticker":"ACME"}}`), 3)
	if rec.Operation != enum.OperationUpdate {
		t.Fatalf("operation: got %s want update", rec.Operation)
	}
}

func TestDecodeEnvelopePassesThroughGarbage(t *testing.T) {
	raw := []byte("{this is not a change record")
	rec := decodeEnvelope(raw, 11)
	if rec.Operation != enum.OperationUnknown {
		t.Fatalf("operation: got %s want unknown", rec.Operation)
	}
	if rec.SourceOffset != 11 {
		t.Fatalf("offset: got %d want 11", rec.SourceOffset)
	}
	if string(rec.Payload) != string(raw) {
		t.Fatal("garbage payload should pass through for counting")
	}
}
