// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Cache metrics, labelled by key family or operation
	IncCacheHit(family string)
	IncCacheMiss(family string)
	IncCacheError(op string)
	IncCacheInvalidation(family string, keys int)

	// Click recording metrics
	IncClickRecorded(kind string) // kind: "movie" or "episode"
	IncClickEventDropped()

	// Rollup job metrics
	IncRollupRun(step, status string) // status: "success" or "failed"
	ObserveRollupDuration(step string, duration time.Duration)
	AddClickEventsPruned(n int64)
}

