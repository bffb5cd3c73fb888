package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/hub"
	"main/internal/obs"
	"main/internal/store"
	"main/internal/window"
)

// Workers run one goroutine per bus partition. Each worker exclusively
// owns its partition's symbol windows and baselines, so the hot path
// needs no locks. A worker failure is fatal to that partition only: its
// window state is discarded and the worker restarts on the same
// partition, picking up from the bus queue.
type Workers struct {
	bus     *bus.Bus
	hub     *hub.Hub
	cache   *store.TickCache
	metrics *obs.Metrics
	aggCfg  window.Config

	wg sync.WaitGroup
}

// NewWorkers prepares partition workers over the given bus.
func NewWorkers(b *bus.Bus, h *hub.Hub, cache *store.TickCache, aggCfg window.Config, metrics *obs.Metrics) *Workers {
	return &Workers{
		bus:     b,
		hub:     h,
		cache:   cache,
		metrics: metrics,
		aggCfg:  aggCfg,
	}
}

// Start launches one worker per partition.
func (w *Workers) Start(ctx context.Context) {
	for p := 0; p < w.bus.PartitionCount(); p++ {
		w.wg.Add(1)
		go func(partition int) {
			defer w.wg.Done()
			w.run(ctx, partition)
		}(p)
	}
}

// Wait blocks until every worker has sealed its windows and exited.
func (w *Workers) Wait() {
	w.wg.Wait()
}

func (w *Workers) run(ctx context.Context, partition int) {
	for {
		done := w.runOnce(ctx, partition)
		if done {
			return
		}
		// Restart after a failure with fresh state for this partition.
		w.metrics.IncWorkerRestart()
		logs.Warnf("partition %d worker restarting, window state discarded", partition)
	}
}

// runOnce consumes the partition until the channel closes or the context
// is cancelled, returning true when the worker should not restart.
// Panics are contained to this partition.
func (w *Workers) runOnce(ctx context.Context, partition int) (done bool) {
	agg := window.NewAggregator(w.aggCfg, w.hub, w.metrics)

	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("partition %d worker failed: %+v", partition, r)
			done = false
			return
		}
		// Seal-then-stop: no window is left sealed-but-unscored.
		agg.SealAll(time.Now().UTC())
	}()

	events, err := w.bus.Subscribe(partition)
	if err != nil {
		logs.Errorf("partition %d subscribe failed: %+v", partition, err)
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return true
		case ev, ok := <-events:
			if !ok {
				return true
			}
			agg.Process(ev)
			w.hub.PublishTick(ev)
			if w.cache.Enabled() {
				if err := w.cache.SetLatest(ctx, ev); err != nil {
					logs.Debugf("tick cache write for %s failed: %+v", ev.Symbol, err)
				}
			}
		}
	}
}
