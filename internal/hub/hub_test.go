package hub

import (
	"testing"
	"time"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/pkg/exception"
)

func tick(symbol string, seq uint64) model.TradeEvent {
	return model.TradeEvent{Symbol: symbol, Price: 100, Volume: 10, Sequence: seq}
}

func TestSubscriptionReceivesMatchingSymbolsOnly(t *testing.T) {
	h := New(16, obs.NewMetrics())
	sub, err := h.Subscribe(enum.ChannelTick, []string{"ACME"})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer h.Unsubscribe(sub)

	h.PublishTick(tick("GOOG", 1))
	h.PublishTick(tick("ACME", 1))
	h.PublishTick(tick("GOOG", 2))
	h.PublishTick(tick("ACME", 2))

	for want := uint64(1); want <= 2; want++ {
		m, ok := sub.Next()
		if !ok {
			t.Fatal("subscription closed early")
		}
		if m.Tick == nil || m.Tick.Symbol != "ACME" || m.Tick.Sequence != want {
			t.Fatalf("got %+v want ACME/%d", m, want)
		}
	}
	if sub.Pending() != 0 {
		t.Fatalf("unexpected pending messages: %d", sub.Pending())
	}
}

func TestUnfilteredSubscriptionReceivesAllSymbols(t *testing.T) {
	h := New(16, obs.NewMetrics())
	sub, err := h.Subscribe(enum.ChannelTick, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer h.Unsubscribe(sub)

	h.PublishTick(tick("GOOG", 1))
	h.PublishTick(tick("ACME", 1))
	if sub.Pending() != 2 {
		t.Fatalf("pending: got %d want 2", sub.Pending())
	}
}

func TestChannelsAreIsolated(t *testing.T) {
	h := New(16, obs.NewMetrics())
	ticks, err := h.Subscribe(enum.ChannelTick, nil)
	if err != nil {
		t.Fatalf("subscribe ticks: %v", err)
	}
	defer h.Unsubscribe(ticks)
	alerts, err := h.Subscribe(enum.ChannelAnomaly, nil)
	if err != nil {
		t.Fatalf("subscribe alerts: %v", err)
	}
	defer h.Unsubscribe(alerts)

	h.PublishTick(tick("ACME", 1))
	h.PublishAlert(model.AnomalyAlert{Symbol: "ACME", Score: 5, Reason: enum.ReasonVolumeSpike})

	if ticks.Pending() != 1 || alerts.Pending() != 1 {
		t.Fatalf("pending: ticks=%d alerts=%d, want 1/1", ticks.Pending(), alerts.Pending())
	}
	m, _ := alerts.Next()
	if m.Alert == nil || m.Alert.Reason != enum.ReasonVolumeSpike {
		t.Fatalf("alert message malformed: %+v", m)
	}
}

func TestFullQueueDropsOldest(t *testing.T) {
	metrics := obs.NewMetrics()
	h := New(3, metrics)
	sub, err := h.Subscribe(enum.ChannelTick, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer h.Unsubscribe(sub)

	for seq := uint64(1); seq <= 5; seq++ {
		h.PublishTick(tick("ACME", seq))
	}

	if sub.Dropped() != 2 {
		t.Fatalf("dropped: got %d want 2", sub.Dropped())
	}
	if metrics.Snapshot().SubscriptionDrops != 2 {
		t.Fatalf("drop counter: got %d want 2", metrics.Snapshot().SubscriptionDrops)
	}
	// The survivors are the newest three, still in order.
	for want := uint64(3); want <= 5; want++ {
		m, ok := sub.Next()
		if !ok || m.Tick.Sequence != want {
			t.Fatalf("got %+v want seq %d", m, want)
		}
	}
}

func TestSlowSubscriberDoesNotAffectOthers(t *testing.T) {
	h := New(2, obs.NewMetrics())
	slow, err := h.Subscribe(enum.ChannelTick, nil)
	if err != nil {
		t.Fatalf("subscribe slow: %v", err)
	}
	defer h.Unsubscribe(slow)
	fast, err := h.Subscribe(enum.ChannelTick, nil)
	if err != nil {
		t.Fatalf("subscribe fast: %v", err)
	}
	defer h.Unsubscribe(fast)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for seq := uint64(1); seq <= 100; seq++ {
			m, ok := fast.Next()
			if !ok || m.Tick.Sequence != seq {
				t.Errorf("fast subscriber got %+v want seq %d", m, seq)
				return
			}
		}
	}()

	// The slow subscriber never reads; publishing must not block.
	for seq := uint64(1); seq <= 100; seq++ {
		h.PublishTick(tick("ACME", seq))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fast subscriber starved by slow one")
	}
	if slow.Dropped() == 0 {
		t.Fatal("slow subscriber should have dropped messages")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h := New(4, obs.NewMetrics())
	sub, err := h.Subscribe(enum.ChannelTick, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	h.Unsubscribe(sub)
	h.Unsubscribe(sub)
	h.Unsubscribe(nil)

	if h.SubscriptionCount() != 0 {
		t.Fatalf("subscriptions remain: %d", h.SubscriptionCount())
	}
	if sub.State() != enum.DeliveryClosed {
		t.Fatalf("state: got %s want closed", sub.State())
	}
	if _, ok := sub.Next(); ok {
		t.Fatal("closed subscription should end the stream")
	}
}

func TestCloseAllEndsStreamsCleanly(t *testing.T) {
	h := New(4, obs.NewMetrics())
	sub, err := h.Subscribe(enum.ChannelTick, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	h.CloseAll()

	if _, ok := sub.Next(); ok {
		t.Fatal("stream should end after CloseAll")
	}
	// The hub still accepts new subscriptions after a grace-period drain.
	again, err := h.Subscribe(enum.ChannelTick, nil)
	if err != nil {
		t.Fatalf("resubscribe after CloseAll: %v", err)
	}
	h.Unsubscribe(again)
}

func TestShutdownRefusesNewSubscriptions(t *testing.T) {
	h := New(4, obs.NewMetrics())
	sub, err := h.Subscribe(enum.ChannelTick, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	h.Shutdown()

	if _, ok := sub.Next(); ok {
		t.Fatal("stream should end after Shutdown")
	}
	if _, err := h.Subscribe(enum.ChannelTick, nil); err != exception.ErrHubClosed {
		t.Fatalf("got %v want %v", err, exception.ErrHubClosed)
	}
}

func TestResubscribeSwapsFilter(t *testing.T) {
	h := New(16, obs.NewMetrics())
	sub, err := h.Subscribe(enum.ChannelTick, []string{"ACME"})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	fresh, err := h.Resubscribe(sub, []string{"GOOG"})
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	defer h.Unsubscribe(fresh)

	if h.SubscriptionCount() != 1 {
		t.Fatalf("subscriptions: got %d want 1", h.SubscriptionCount())
	}
	if sub.State() != enum.DeliveryClosed {
		t.Fatalf("old state: got %s want closed", sub.State())
	}
	if _, ok := sub.Next(); ok {
		t.Fatal("old stream should end after the swap")
	}

	h.PublishTick(tick("ACME", 1))
	h.PublishTick(tick("GOOG", 1))

	m, ok := fresh.Next()
	if !ok {
		t.Fatal("fresh subscription closed early")
	}
	if m.Tick == nil || m.Tick.Symbol != "GOOG" {
		t.Fatalf("got %+v want GOOG", m)
	}
}

func TestResubscribeClosedSubscription(t *testing.T) {
	h := New(4, obs.NewMetrics())
	sub, err := h.Subscribe(enum.ChannelTick, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	h.Unsubscribe(sub)

	if _, err := h.Resubscribe(sub, []string{"ACME"}); err != exception.ErrSubscriptionClosed {
		t.Fatalf("got %v want %v", err, exception.ErrSubscriptionClosed)
	}
	if _, err := h.Resubscribe(nil, nil); err != exception.ErrSubscriptionClosed {
		t.Fatalf("got %v want %v", err, exception.ErrSubscriptionClosed)
	}
	if h.SubscriptionCount() != 0 {
		t.Fatalf("subscriptions remain: %d", h.SubscriptionCount())
	}
}

func TestSubscribeUnknownChannel(t *testing.T) {
	h := New(4, obs.NewMetrics())
	if _, err := h.Subscribe(enum.ChannelUnknown, nil); err != exception.ErrUnknownChannel {
		t.Fatalf("got %v want %v", err, exception.ErrUnknownChannel)
	}
}
