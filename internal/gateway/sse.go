package gateway

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"main/internal/model/enum"
)

// handleAlerts streams anomaly alerts as server-sent events, optionally
// filtered by the symbols query parameter. Keep-alive comments are sent
// on the heartbeat interval so idle proxies hold the connection open.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	symbols := parseSymbols(r.URL.Query().Get("symbols"))
	sub, err := s.hub.Subscribe(enum.ChannelAnomaly, symbols)
	if err != nil {
		http.Error(w, "hub unavailable", http.StatusServiceUnavailable)
		return
	}
	defer s.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	next := startDelivery(sub)
	defer drain(next)
	heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case m, ok := <-next:
			if !ok {
				// Clean end of stream, e.g. hub drained past the source
				// grace period.
				_, _ = fmt.Fprint(w, "event: close\ndata: {\"message\":\"stream closed\"}\n\n")
				flusher.Flush()
				return
			}
			if m.Alert == nil {
				continue
			}
			data, err := sonic.Marshal(alertWire(m.Alert))
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: anomaly\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
