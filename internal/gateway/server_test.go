package gateway

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"main/internal/hub"
	"main/internal/obs"
	"main/internal/store"
)

func testServer() *Server {
	return NewServer(Config{Addr: ":0", HeartbeatInterval: time.Second}, hub.New(8, obs.NewMetrics()), nil, nil)
}

func TestParseSymbols(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", nil},
		{"acme", []string{"ACME"}},
		{"acme, goog ,MSFT", []string{"ACME", "GOOG", "MSFT"}},
		{" , ,", nil},
	}
	for _, tt := range tests {
		if got := parseSymbols(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("parseSymbols(%q): got %v want %v", tt.raw, got, tt.want)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("content type: got %s", rec.Header().Get("Content-Type"))
	}
}

func TestHistoryRejectsNonGet(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/trades", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status: got %d want 405", rec.Code)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trades", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d want 503", rec.Code)
	}
}

func TestHistoryValidatesParams(t *testing.T) {
	// A store adapter without a live pool still validates parameters first.
	s := NewServer(Config{}, hub.New(8, obs.NewMetrics()), store.NewHistory(nil), nil)

	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trades?duration=-5", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative duration: got %d want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trades?tradeType=HOLD", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad trade type: got %d want 400", rec.Code)
	}
}
