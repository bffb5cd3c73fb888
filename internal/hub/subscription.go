package hub

import (
	"sync/atomic"

	"github.com/google/uuid"

	"main/internal/model"
	"main/internal/model/enum"
)

// Subscription is one live client's attachment to a channel. It owns a
// bounded queue written by partition workers and read by exactly one
// delivery path. A fresh subscription starts from "now"; there is no
// replay.
type Subscription struct {
	id      uuid.UUID
	channel enum.Channel
	filter  map[string]struct{} // nil means all symbols
	queue   *messageQueue
	state   atomic.Uint32 // enum.DeliveryState
	dropped atomic.Uint64
}

func newSubscription(channel enum.Channel, symbols []string, queueCapacity int) *Subscription {
	var filter map[string]struct{}
	if len(symbols) > 0 {
		filter = make(map[string]struct{}, len(symbols))
		for _, s := range symbols {
			filter[s] = struct{}{}
		}
	}
	sub := &Subscription{
		id:      uuid.New(),
		channel: channel,
		filter:  filter,
		queue:   newMessageQueue(queueCapacity),
	}
	sub.state.Store(uint32(enum.DeliveryConnected))
	return sub
}

// ID returns the subscription's client-facing identifier.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Channel returns the subscribed channel kind.
func (s *Subscription) Channel() enum.Channel {
	return s.channel
}

// State returns the current delivery state.
func (s *Subscription) State() enum.DeliveryState {
	return enum.DeliveryState(s.state.Load())
}

// Dropped returns how many messages were discarded because this
// subscription's queue was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Pending returns the number of queued, undelivered messages.
func (s *Subscription) Pending() int {
	return s.queue.len()
}

// Next blocks until a message is available or the subscription closes.
func (s *Subscription) Next() (model.Message, bool) {
	return s.queue.pop()
}

func (s *Subscription) matches(m model.Message) bool {
	if s.channel != m.Channel {
		return false
	}
	if s.filter == nil {
		return true
	}
	_, ok := s.filter[m.Symbol()]
	return ok
}

// offer enqueues without ever blocking the caller.
func (s *Subscription) offer(m model.Message) (dropped int) {
	dropped, ok := s.queue.push(m)
	if !ok {
		return 0
	}
	s.dropped.Add(uint64(dropped))
	return dropped
}

func (s *Subscription) close() {
	s.state.Store(uint32(enum.DeliveryClosed))
	s.queue.close()
}

func (s *Subscription) drain() {
	s.state.CompareAndSwap(uint32(enum.DeliveryConnected), uint32(enum.DeliveryDraining))
}
