package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CacheHits          map[string]uint64
	CacheMisses        map[string]uint64
	CacheErrors        map[string]uint64
	CacheInvalidations map[string]uint64
	ClicksRecorded     map[string]uint64
	ClickEventsDropped uint64
	RollupRuns         map[string]uint64 // key: step:status
	RollupDurationNs   int64
	ClickEventsPruned  int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                 sync.Mutex
	cacheHits          map[string]uint64
	cacheMisses        map[string]uint64
	cacheErrors        map[string]uint64
	cacheInvalidations map[string]uint64
	clicksRecorded     map[string]uint64
	rollupRuns         map[string]uint64

	clickEventsDropped uint64
	rollupDurationNs   int64
	clickEventsPruned  int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		cacheHits:          make(map[string]uint64),
		cacheMisses:        make(map[string]uint64),
		cacheErrors:        make(map[string]uint64),
		cacheInvalidations: make(map[string]uint64),
		clicksRecorded:     make(map[string]uint64),
		rollupRuns:         make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		CacheHits:          copyCounts(m.cacheHits),
		CacheMisses:        copyCounts(m.cacheMisses),
		CacheErrors:        copyCounts(m.cacheErrors),
		CacheInvalidations: copyCounts(m.cacheInvalidations),
		ClicksRecorded:     copyCounts(m.clicksRecorded),
		RollupRuns:         copyCounts(m.rollupRuns),
		ClickEventsDropped: atomic.LoadUint64(&m.clickEventsDropped),
		RollupDurationNs:   atomic.LoadInt64(&m.rollupDurationNs),
		ClickEventsPruned:  atomic.LoadInt64(&m.clickEventsPruned),
	}
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string, n uint64) {
	m.mu.Lock()
	counts[label] += n
	m.mu.Unlock()
}

// IncCacheHit increments the cache hit counter for a family.
func (m *InMemoryRecorder) IncCacheHit(family string) { m.inc(m.cacheHits, family, 1) }

// IncCacheMiss increments the cache miss counter for a family.
func (m *InMemoryRecorder) IncCacheMiss(family string) { m.inc(m.cacheMisses, family, 1) }

// IncCacheError increments the cache error counter for an operation.
func (m *InMemoryRecorder) IncCacheError(op string) { m.inc(m.cacheErrors, op, 1) }

// IncCacheInvalidation adds the number of keys removed for a family.
func (m *InMemoryRecorder) IncCacheInvalidation(family string, keys int) {
	m.inc(m.cacheInvalidations, family, uint64(keys))
}

// IncClickRecorded increments the recorded click counter.
func (m *InMemoryRecorder) IncClickRecorded(kind string) { m.inc(m.clicksRecorded, kind, 1) }

// IncClickEventDropped counts click events that failed to persist.
func (m *InMemoryRecorder) IncClickEventDropped() {
	atomic.AddUint64(&m.clickEventsDropped, 1)
}

// IncRollupRun counts rollup step executions by outcome.
func (m *InMemoryRecorder) IncRollupRun(step, status string) {
	m.inc(m.rollupRuns, step+":"+status, 1)
}

// ObserveRollupDuration records rollup step duration.
func (m *InMemoryRecorder) ObserveRollupDuration(step string, duration time.Duration) {
	atomic.AddInt64(&m.rollupDurationNs, duration.Nanoseconds())
}

// AddClickEventsPruned records rows removed by retention cleanup.
func (m *InMemoryRecorder) AddClickEventsPruned(n int64) {
	atomic.AddInt64(&m.clickEventsPruned, n)
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
