package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SearchesTotal        *prometheus.CounterVec
	SearchDuration       prometheus.Histogram
	CandidatesScored     prometheus.Histogram
	ResultsReturned      prometheus.Histogram
	SourceFetchFailures  *prometheus.CounterVec
	DegradedCandidates   prometheus.Counter
	CacheHits            prometheus.Counter
	CacheMisses          prometheus.Counter
	BatchQueriesTotal    *prometheus.CounterVec
	CustomEntitiesActive prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_screening_searches_total",
			Help: "Total number of screening searches by outcome",
		}, []string{"outcome"}),
		SearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigil_screening_search_duration_seconds",
			Help:    "End-to-end duration of a single screening search",
			Buckets: prometheus.DefBuckets,
		}),
		CandidatesScored: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigil_screening_candidates_scored",
			Help:    "Number of candidate entities scored per search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		ResultsReturned: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigil_screening_results_returned",
			Help:    "Number of results returned per search",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		SourceFetchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_screening_source_fetch_failures_total",
			Help: "Total number of candidate source reads that failed or timed out",
		}, []string{"source"}),
		DegradedCandidates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_screening_degraded_candidates_total",
			Help: "Total number of candidates scored with one or more metrics dropped",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_screening_cache_hits_total",
			Help: "Total number of result cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_screening_cache_misses_total",
			Help: "Total number of result cache misses",
		}),
		BatchQueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_screening_batch_queries_total",
			Help: "Total number of batch queries by terminal state",
		}, []string{"state"}),
		CustomEntitiesActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vigil_screening_custom_entities_active",
			Help: "Current number of active custom-list entities",
		}),
	}
}

func (m *Metrics) RecordSearch(outcome string, duration time.Duration, candidates, results int) {
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchDuration.Observe(duration.Seconds())
	m.CandidatesScored.Observe(float64(candidates))
	m.ResultsReturned.Observe(float64(results))
}

func (m *Metrics) RecordSourceFailure(source string) {
	m.SourceFetchFailures.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordDegraded() {
	m.DegradedCandidates.Inc()
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

func (m *Metrics) RecordBatchQuery(state string) {
	m.BatchQueriesTotal.WithLabelValues(state).Inc()
}

func (m *Metrics) SetActiveCustomEntities(count int) {
	m.CustomEntitiesActive.Set(float64(count))
}
