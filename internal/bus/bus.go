package bus

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	"main/internal/model"
	"main/pkg/exception"
)

// Bus routes trade events to a fixed set of partitions keyed by symbol.
// All events for one symbol land on exactly one partition in publish
// order; different partitions drain fully in parallel.
//
// Publish blocks when the target partition queue is full, propagating
// backpressure to the change-log reader instead of dropping events.
type Bus struct {
	partitions []chan model.TradeEvent
	closed     uint32
}

// New allocates a bus with the given partition count and per-partition
// queue capacity. The partition count is fixed for the bus lifetime so
// symbols hash to the same partition across restarts.
func New(partitionCount, queueCapacity int) *Bus {
	if partitionCount <= 0 {
		partitionCount = 1
	}
	if queueCapacity <= 0 {
		queueCapacity = 1
	}
	partitions := make([]chan model.TradeEvent, partitionCount)
	for i := range partitions {
		partitions[i] = make(chan model.TradeEvent, queueCapacity)
	}
	return &Bus{partitions: partitions}
}

// PartitionCount returns the fixed number of partitions.
func (b *Bus) PartitionCount() int {
	return len(b.partitions)
}

// PartitionFor maps a symbol deterministically to a partition index.
func (b *Bus) PartitionFor(symbol string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	return int(h.Sum32() % uint32(len(b.partitions)))
}

// Publish enqueues an event on its symbol's partition, blocking while
// the partition queue is full. Returns ErrBusClosed after Close.
func (b *Bus) Publish(ctx context.Context, ev model.TradeEvent) error {
	if atomic.LoadUint32(&b.closed) != 0 {
		return exception.ErrBusClosed
	}
	select {
	case b.partitions[b.PartitionFor(ev.Symbol)] <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns the receive side of one partition. Each partition
// must have exactly one logical consumer.
func (b *Bus) Subscribe(partition int) (<-chan model.TradeEvent, error) {
	if partition < 0 || partition >= len(b.partitions) {
		return nil, exception.ErrUnknownPartition
	}
	return b.partitions[partition], nil
}

// Close stops the bus from accepting events and lets consumers drain.
// Callers must stop publishing before Close.
func (b *Bus) Close() {
	if atomic.CompareAndSwapUint32(&b.closed, 0, 1) {
		for _, ch := range b.partitions {
			close(ch)
		}
	}
}
