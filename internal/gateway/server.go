package gateway

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/hub"
	"main/internal/store"
)

// Config controls the live client edge.
type Config struct {
	Addr string
	// HeartbeatInterval paces SSE keep-alive comments and websocket pings.
	HeartbeatInterval time.Duration
}

// Server exposes the live channels and the historical range query over
// HTTP: websocket ticks, SSE anomaly alerts, REST history.
type Server struct {
	cfg     Config
	hub     *hub.Hub
	history *store.History
	cache   *store.TickCache
}

// NewServer wires the HTTP edge.
func NewServer(cfg Config, h *hub.Hub, history *store.History, cache *store.TickCache) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 15 * time.Second
	}
	return &Server{cfg: cfg, hub: h, history: history, cache: cache}
}

// Routes builds the HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws/ticks", s.handleTicks)
	mux.HandleFunc("/sse/alerts", s.handleAlerts)
	mux.HandleFunc("/api/v1/trades", s.handleHistory)
	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.Routes(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logs.Infof("gateway listening on %s", s.cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// parseSymbols reads the symbols query parameter, uppercased.
// Omission means all symbols.
func parseSymbols(raw string) []string {
	if raw == "" {
		return nil
	}
	return normalizeSymbols(strings.Split(raw, ","))
}

func normalizeSymbols(parts []string) []string {
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToUpper(strings.TrimSpace(p)); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		return nil
	}
	return symbols
}
