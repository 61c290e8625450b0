package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncCacheHit(family string)                    {}
func (n *NoopRecorder) IncCacheMiss(family string)                   {}
func (n *NoopRecorder) IncCacheError(op string)                      {}
func (n *NoopRecorder) IncCacheInvalidation(family string, keys int) {}
func (n *NoopRecorder) IncClickRecorded(kind string)                 {}
func (n *NoopRecorder) IncClickEventDropped()                        {}
func (n *NoopRecorder) IncRollupRun(step, status string)             {}

func (n *NoopRecorder) ObserveRollupDuration(step string, duration time.Duration) {}

func (n *NoopRecorder) AddClickEventsPruned(count int64) {}
