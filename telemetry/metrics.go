package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics wraps the small set of prometheus collectors the engine
// instruments, grounded on arx-os-arxos's promauto.NewCounterVec /
// NewHistogramVec service-instrumentation idiom. A nil *Metrics is valid
// everywhere metrics are recorded: every method is a nil-safe no-op, so the
// hot path never allocates label slices unless a caller opted in by
// constructing one.
type Metrics struct {
	planCacheHits   prometheus.Counter
	planCacheMisses prometheus.Counter
	rowsScanned     prometheus.Counter
	chunksSkipped   prometheus.Counter
	queryDuration   prometheus.Histogram
}

// NewMetrics registers a fresh set of collectors on reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the global
// default registry across repeated construction.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		planCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "qcore_plan_cache_hits_total",
			Help: "Number of plan cache lookups that returned a cached plan.",
		}),
		planCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "qcore_plan_cache_misses_total",
			Help: "Number of plan cache lookups that required optimization.",
		}),
		rowsScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "qcore_rows_scanned_total",
			Help: "Number of rows evaluated by the executor across all queries.",
		}),
		chunksSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "qcore_chunks_skipped_total",
			Help: "Number of chunks skipped entirely by zone-map pruning.",
		}),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "qcore_query_duration_seconds",
			Help:    "Wall-clock duration of a single engine.Query call.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) PlanCacheHit() {
	if m == nil {
		return
	}
	m.planCacheHits.Inc()
}

func (m *Metrics) PlanCacheMiss() {
	if m == nil {
		return
	}
	m.planCacheMisses.Inc()
}

func (m *Metrics) RowsScanned(n uint64) {
	if m == nil {
		return
	}
	m.rowsScanned.Add(float64(n))
}

func (m *Metrics) ChunkSkipped() {
	if m == nil {
		return
	}
	m.chunksSkipped.Inc()
}

func (m *Metrics) ObserveQueryDuration(seconds float64) {
	if m == nil {
		return
	}
	m.queryDuration.Observe(seconds)
}
