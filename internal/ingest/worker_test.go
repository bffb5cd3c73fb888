package ingest

import (
	"context"
	"testing"
	"time"

	"main/internal/bus"
	"main/internal/hub"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/window"
)

func workerWindowConfig() window.Config {
	return window.Config{
		Size:          time.Minute,
		BaselineDecay: 0.3,
		Score: window.ScoreConfig{
			Weights:            window.Weights{Volume: 1, Price: 0.5},
			Threshold:          3,
			MinBaselineWindows: 4,
		},
	}
}

func publishAll(t *testing.T, b *bus.Bus, events []model.TradeEvent) {
	t.Helper()
	ctx := context.Background()
	for _, ev := range events {
		if err := b.Publish(ctx, ev); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
}

func TestWorkersFanTicksOutToHub(t *testing.T) {
	metrics := obs.NewMetrics()
	b := bus.New(2, 16)
	h := hub.New(16, metrics)
	sub, err := h.Subscribe(enum.ChannelTick, []string{"ACME"})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	workers := NewWorkers(b, h, nil, workerWindowConfig(), metrics)
	workers.Start(context.Background())

	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	publishAll(t, b, []model.TradeEvent{
		{Symbol: "ACME", Price: 100, Volume: 10, EventTime: base, Sequence: 1},
		{Symbol: "GOOG", Price: 200, Volume: 20, EventTime: base, Sequence: 1},
		{Symbol: "ACME", Price: 101, Volume: 12, EventTime: base.Add(time.Second), Sequence: 2},
	})
	b.Close()
	workers.Wait()

	for want := uint64(1); want <= 2; want++ {
		m, ok := sub.Next()
		if !ok {
			t.Fatal("subscription closed early")
		}
		if m.Tick == nil || m.Tick.Symbol != "ACME" || m.Tick.Sequence != want {
			t.Fatalf("got %+v want ACME/%d", m, want)
		}
	}
	if snap := metrics.Snapshot(); snap.TicksIngested != 3 {
		t.Fatalf("ingested: got %d want 3", snap.TicksIngested)
	}
}

func TestWorkersRestartAfterPanic(t *testing.T) {
	metrics := obs.NewMetrics()
	b := bus.New(1, 8)
	// No hub: the tick fan-out panics, which must stay contained to this
	// partition's worker.
	workers := NewWorkers(b, nil, nil, workerWindowConfig(), metrics)
	workers.Start(context.Background())

	publishAll(t, b, []model.TradeEvent{
		{Symbol: "ACME", Price: 100, Volume: 10, EventTime: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC), Sequence: 1},
	})
	b.Close()

	done := make(chan struct{})
	go func() {
		workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not recover and drain after a panic")
	}

	snap := metrics.Snapshot()
	if snap.WorkerRestarts != 1 {
		t.Fatalf("worker restarts: got %d want 1", snap.WorkerRestarts)
	}
	if snap.TicksIngested != 1 {
		t.Fatalf("ingested: got %d want 1", snap.TicksIngested)
	}
}

func TestWorkersSealWindowsOnShutdown(t *testing.T) {
	metrics := obs.NewMetrics()
	b := bus.New(1, 64)
	h := hub.New(16, metrics)
	alerts, err := h.Subscribe(enum.ChannelAnomaly, nil)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	workers := NewWorkers(b, h, nil, workerWindowConfig(), metrics)
	workers.Start(context.Background())

	// Four baseline windows, then a volume spike in the open window.
	// Shutdown must seal and score it.
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	var events []model.TradeEvent
	for i, v := range []int64{10, 12, 11, 13, 500} {
		events = append(events, model.TradeEvent{
			Symbol:    "ACME",
			Price:     100,
			Volume:    v,
			EventTime: base.Add(time.Duration(i) * time.Minute),
			Sequence:  uint64(i + 1),
		})
	}
	publishAll(t, b, events)
	b.Close()
	workers.Wait()

	m, ok := alerts.Next()
	if !ok {
		t.Fatal("alert subscription closed without delivery")
	}
	if m.Alert == nil || m.Alert.Symbol != "ACME" || m.Alert.Reason != enum.ReasonVolumeSpike {
		t.Fatalf("unexpected alert: %+v", m)
	}
	if snap := metrics.Snapshot(); snap.AlertsEmitted != 1 {
		t.Fatalf("alerts emitted: got %d want 1", snap.AlertsEmitted)
	}
}
