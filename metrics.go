package authflow

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint8

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterConflict
	MetricRegisterInvalid
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginLocked
	MetricLoginUnverified
	MetricVerifySuccess
	MetricVerifyFailure
	MetricVerificationResent
	MetricResetRequested
	MetricResetSuccess
	MetricResetFailure
	MetricNotifyFailure

	metricIDCount
)

type paddedCounter struct {
	value uint64
	_     [56]byte // keep hot counters on separate cache lines
}

// Metrics holds lock-free operation counters. All methods are safe on a nil
// receiver so disabled metrics cost a single branch.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
