package hub

import (
	"sync"

	"github.com/google/uuid"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/pkg/exception"
)

// Hub fans trade events and anomaly alerts out to live subscriptions.
// The registry mutex guards membership only; it is never held while
// messages are enqueued, so one slow client cannot delay another.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscription
	closed bool

	queueCapacity int
	metrics       *obs.Metrics
}

// New creates a hub whose subscriptions buffer up to queueCapacity
// undelivered messages each.
func New(queueCapacity int, metrics *obs.Metrics) *Hub {
	if queueCapacity <= 0 {
		queueCapacity = 64
	}
	return &Hub{
		subs:          make(map[uuid.UUID]*Subscription),
		queueCapacity: queueCapacity,
		metrics:       metrics,
	}
}

// Subscribe registers a new subscription for a channel, optionally
// filtered to a symbol set (empty means all symbols). The returned
// subscription receives events published after this call.
func (h *Hub) Subscribe(channel enum.Channel, symbols []string) (*Subscription, error) {
	if !channel.IsAvailable() {
		return nil, exception.ErrUnknownChannel
	}
	sub := newSubscription(channel, symbols, h.queueCapacity)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, exception.ErrHubClosed
	}
	h.subs[sub.id] = sub
	count := len(h.subs)
	h.mu.Unlock()

	logs.Debugf("subscription %s registered on %s channel (%d live)", sub.id, channel, count)
	return sub, nil
}

// Resubscribe replaces a live subscription's symbol filter by swapping
// in a fresh subscription on the same channel. The old subscription is
// released; messages do not replay across the swap. Returns
// ErrSubscriptionClosed when the subscription has already ended.
func (h *Hub) Resubscribe(old *Subscription, symbols []string) (*Subscription, error) {
	if old == nil || old.State() == enum.DeliveryClosed {
		return nil, exception.ErrSubscriptionClosed
	}
	fresh, err := h.Subscribe(old.channel, symbols)
	if err != nil {
		return nil, err
	}
	h.Unsubscribe(old)
	return fresh, nil
}

// Unsubscribe removes a subscription and releases its queue. Idempotent.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	_, present := h.subs[sub.id]
	delete(h.subs, sub.id)
	h.mu.Unlock()

	sub.close()
	if present {
		logs.Debugf("subscription %s released", sub.id)
	}
}

// PublishTick fans a trade event out to matching tick subscriptions.
// Never blocks the caller; full queues drop their oldest message.
func (h *Hub) PublishTick(ev model.TradeEvent) {
	h.publish(model.TickMessage(&ev))
}

// PublishAlert fans an anomaly alert out to matching anomaly subscriptions.
func (h *Hub) PublishAlert(alert model.AnomalyAlert) {
	h.publish(model.AlertMessage(&alert))
}

func (h *Hub) publish(m model.Message) {
	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		if sub.matches(m) {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if dropped := sub.offer(m); dropped > 0 {
			h.metrics.IncSubscriptionDrop()
		}
	}
}

// SubscriptionCount returns the number of live subscriptions.
func (h *Hub) SubscriptionCount() int {
	h.mu.RLock()
	count := len(h.subs)
	h.mu.RUnlock()
	return count
}

// CloseAll drains and closes every subscription, e.g. when the upstream
// source has been unavailable past its grace period. Clients observe a
// clean end of stream, not an error.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	targets := make([]*Subscription, 0, len(h.subs))
	for id, sub := range h.subs {
		targets = append(targets, sub)
		delete(h.subs, id)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.drain()
		sub.close()
	}
	if len(targets) > 0 {
		logs.Infof("closed %d live subscriptions", len(targets))
	}
}

// Shutdown closes all subscriptions and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.CloseAll()
}
