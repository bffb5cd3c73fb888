package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/yanun0323/logs"

	"main/internal/hub"
	"main/internal/model"
	"main/internal/model/enum"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	maxRequestSize = 1024
)

// refilterRequest lets a connected client replace its symbol filter.
// The old subscription is released and a fresh one starts from "now";
// there is no replay across the swap.
type refilterRequest struct {
	Symbols []string `json:"symbols"`
}

// handleTicks upgrades to a websocket and streams live trades matching
// the symbols query parameter. On connect the cached last trade per
// filtered symbol is sent as a snapshot before live delivery begins.
func (s *Server) handleTicks(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logs.Debugf("tick upgrade failed: %+v", err)
		return
	}
	defer conn.Close()

	symbols := parseSymbols(r.URL.Query().Get("symbols"))
	sub, err := s.hub.Subscribe(enum.ChannelTick, symbols)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub unavailable"),
			time.Now().Add(writeWait))
		return
	}
	defer func() { s.hub.Unsubscribe(sub) }()

	s.sendSnapshots(r.Context(), conn, symbols)

	refilter := s.readLoop(conn)
	next := startDelivery(sub)
	defer func() { drain(next) }()

	ping := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ping.Stop()

	for {
		select {
		case m, ok := <-next:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream closed"),
					time.Now().Add(writeWait))
				return
			}
			if m.Tick == nil {
				continue
			}
			if err := s.writeJSON(conn, tickWire(m.Tick, false)); err != nil {
				return
			}
		case requested, ok := <-refilter:
			if !ok {
				return
			}
			fresh, err := s.hub.Resubscribe(sub, requested)
			if err != nil {
				return
			}
			drain(next)
			sub = fresh
			next = startDelivery(sub)
			s.sendSnapshots(r.Context(), conn, requested)
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// readLoop owns the connection's read side: pong liveness and re-filter
// requests. The returned channel closes when the client goes away.
func (s *Server) readLoop(conn *websocket.Conn) <-chan []string {
	refilter := make(chan []string, 1)
	go func() {
		defer close(refilter)
		conn.SetReadLimit(maxRequestSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			var req refilterRequest
			if err := sonic.Unmarshal(data, &req); err != nil {
				continue
			}
			select {
			case refilter <- normalizeSymbols(req.Symbols):
			default:
			}
		}
	}()
	return refilter
}

// startDelivery pumps one subscription's queue into a channel. The
// channel closes when the subscription does.
func startDelivery(sub *hub.Subscription) <-chan model.Message {
	next := make(chan model.Message)
	go func() {
		defer close(next)
		for {
			m, ok := sub.Next()
			if !ok {
				return
			}
			next <- m
		}
	}()
	return next
}

// drain lets an abandoned delivery pump finish after its subscription
// has been unsubscribed, so it never blocks on a send with no receiver.
func drain(ch <-chan model.Message) {
	go func() {
		for range ch {
		}
	}()
}

func (s *Server) writeJSON(conn *websocket.Conn, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) sendSnapshots(ctx context.Context, conn *websocket.Conn, symbols []string) {
	if !s.cache.Enabled() {
		return
	}
	for _, symbol := range symbols {
		ev, err := s.cache.Latest(ctx, symbol)
		if err != nil {
			continue
		}
		if err := s.writeJSON(conn, tickWire(&ev, true)); err != nil {
			return
		}
	}
}
