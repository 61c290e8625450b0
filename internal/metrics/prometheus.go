package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder exports Recorder events as Prometheus collectors.
type PrometheusRecorder struct {
	cacheRequests      *prometheus.CounterVec
	cacheErrors        *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec
	clicksRecorded     *prometheus.CounterVec
	clickEventsDropped prometheus.Counter
	rollupRuns         *prometheus.CounterVec
	rollupDuration     *prometheus.HistogramVec
	clickEventsPruned  prometheus.Counter
}

// NewPrometheus registers collectors on reg and returns a Recorder.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	f := promauto.With(reg)
	return &PrometheusRecorder{
		cacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cinelink_cache_requests_total",
			Help: "Read-through cache lookups by key family and result.",
		}, []string{"family", "result"}),
		cacheErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cinelink_cache_errors_total",
			Help: "Cache store operations that failed and were degraded to a no-op.",
		}, []string{"op"}),
		cacheInvalidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cinelink_cache_invalidated_keys_total",
			Help: "Cache keys removed by invalidation, by family.",
		}, []string{"family"}),
		clicksRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cinelink_clicks_recorded_total",
			Help: "Click-throughs recorded, by target kind.",
		}, []string{"kind"}),
		clickEventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "cinelink_click_events_dropped_total",
			Help: "Click events that could not be persisted to the event log.",
		}),
		rollupRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cinelink_rollup_runs_total",
			Help: "Rollup job step executions by outcome.",
		}, []string{"step", "status"}),
		rollupDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cinelink_rollup_duration_seconds",
			Help:    "Rollup job step duration.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"step"}),
		clickEventsPruned: f.NewCounter(prometheus.CounterOpts{
			Name: "cinelink_click_events_pruned_total",
			Help: "Click events deleted by retention cleanup.",
		}),
	}
}

func (p *PrometheusRecorder) IncCacheHit(family string) {
	p.cacheRequests.WithLabelValues(family, "hit").Inc()
}

func (p *PrometheusRecorder) IncCacheMiss(family string) {
	p.cacheRequests.WithLabelValues(family, "miss").Inc()
}

func (p *PrometheusRecorder) IncCacheError(op string) {
	p.cacheErrors.WithLabelValues(op).Inc()
}

func (p *PrometheusRecorder) IncCacheInvalidation(family string, keys int) {
	p.cacheInvalidations.WithLabelValues(family).Add(float64(keys))
}

func (p *PrometheusRecorder) IncClickRecorded(kind string) {
	p.clicksRecorded.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncClickEventDropped() {
	p.clickEventsDropped.Inc()
}

func (p *PrometheusRecorder) IncRollupRun(step, status string) {
	p.rollupRuns.WithLabelValues(step, status).Inc()
}

func (p *PrometheusRecorder) ObserveRollupDuration(step string, duration time.Duration) {
	p.rollupDuration.WithLabelValues(step).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) AddClickEventsPruned(n int64) {
	p.clickEventsPruned.Add(float64(n))
}
