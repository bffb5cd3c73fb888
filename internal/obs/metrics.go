package obs

import (
	"sync/atomic"
	"time"

	"main/internal/model/enum"
)

// Metrics collects lightweight counters and latency stats for the pipeline.
type Metrics struct {
	ticksIngested uint64
	rejectCounts  [enum.RejectKindCount]uint64
	duplicates    uint64
	gaps          uint64
	lateEvents    uint64

	windowsSealed uint64
	emptyWindows  uint64
	alertsEmitted uint64

	subscriptionDrops uint64
	sourceRetries     uint64
	workerRestarts    uint64

	ingestLatency LatencyStats
}

// Snapshot is a point-in-time view of the metrics values.
type Snapshot struct {
	TicksIngested     uint64
	RejectCounts      map[enum.RejectKind]uint64
	Duplicates        uint64
	Gaps              uint64
	LateEvents        uint64
	WindowsSealed     uint64
	EmptyWindows      uint64
	AlertsEmitted     uint64
	SubscriptionDrops uint64
	SourceRetries     uint64
	WorkerRestarts    uint64
	IngestLatency     LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveTick counts an accepted trade event and tracks source-to-process latency.
func (m *Metrics) ObserveTick(eventTime, recvTime time.Time) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ticksIngested, 1)
	if eventTime.IsZero() || recvTime.IsZero() {
		return
	}
	if delta := recvTime.Sub(eventTime); delta >= 0 {
		m.ingestLatency.Observe(delta)
	}
}

// IncReject counts a normalizer rejection by kind.
func (m *Metrics) IncReject(kind enum.RejectKind) {
	if m == nil {
		return
	}
	idx := int(kind)
	if idx >= 0 && idx < len(m.rejectCounts) {
		atomic.AddUint64(&m.rejectCounts[idx], 1)
	}
}

// IncDuplicate counts an idempotently dropped duplicate sequence.
func (m *Metrics) IncDuplicate() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.duplicates, 1)
}

// IncGap counts a detected sequence gap.
func (m *Metrics) IncGap() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.gaps, 1)
}

// IncLateEvent counts an event older than the open window.
func (m *Metrics) IncLateEvent() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.lateEvents, 1)
}

// IncWindowSealed counts a sealed window; empty marks zero-trade windows.
func (m *Metrics) IncWindowSealed(empty bool) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.windowsSealed, 1)
	if empty {
		atomic.AddUint64(&m.emptyWindows, 1)
	}
}

// IncAlert counts an emitted anomaly alert.
func (m *Metrics) IncAlert() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.alertsEmitted, 1)
}

// IncSubscriptionDrop counts one event dropped from a full subscription queue.
func (m *Metrics) IncSubscriptionDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.subscriptionDrops, 1)
}

// IncSourceRetry counts a change-log reconnect attempt.
func (m *Metrics) IncSourceRetry() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sourceRetries, 1)
}

// IncWorkerRestart counts a partition worker restart after a failure.
func (m *Metrics) IncWorkerRestart() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.workerRestarts, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	rejects := make(map[enum.RejectKind]uint64)
	for i := range m.rejectCounts {
		if v := atomic.LoadUint64(&m.rejectCounts[i]); v > 0 {
			rejects[enum.RejectKind(i)] = v
		}
	}
	return Snapshot{
		TicksIngested:     atomic.LoadUint64(&m.ticksIngested),
		RejectCounts:      rejects,
		Duplicates:        atomic.LoadUint64(&m.duplicates),
		Gaps:              atomic.LoadUint64(&m.gaps),
		LateEvents:        atomic.LoadUint64(&m.lateEvents),
		WindowsSealed:     atomic.LoadUint64(&m.windowsSealed),
		EmptyWindows:      atomic.LoadUint64(&m.emptyWindows),
		AlertsEmitted:     atomic.LoadUint64(&m.alertsEmitted),
		SubscriptionDrops: atomic.LoadUint64(&m.subscriptionDrops),
		SourceRetries:     atomic.LoadUint64(&m.sourceRetries),
		WorkerRestarts:    atomic.LoadUint64(&m.workerRestarts),
		IngestLatency:     m.ingestLatency.Snapshot(),
	}
}
