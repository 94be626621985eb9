package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"habitd/internal/services"
	"habitd/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncSyncPasses(outcome string)
	ObserveSyncDuration(duration time.Duration)
	AddRecordsPulled(n int)
	AddRecordsPushed(n int)
	IncMergeAction(action string)
	IncRollovers()
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	syncPasses          *prometheus.CounterVec
	syncDuration        prometheus.Histogram
	recordsPulled       prometheus.Counter
	recordsPushed       prometheus.Counter
	mergeActions        *prometheus.CounterVec
	rollovers           prometheus.Counter
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncSyncPasses(outcome string) {
	m.syncPasses.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) ObserveSyncDuration(duration time.Duration) {
	m.syncDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) AddRecordsPulled(n int) {
	m.recordsPulled.Add(float64(n))
}

func (m *MetricsProvider) AddRecordsPushed(n int) {
	m.recordsPushed.Add(float64(n))
}

func (m *MetricsProvider) IncMergeAction(action string) {
	m.mergeActions.WithLabelValues(action).Inc()
}

func (m *MetricsProvider) IncRollovers() {
	m.rollovers.Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, service services.HabitServiceInterface) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "habitd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "habitd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "habitd_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "habitd_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "habitd_persistence_duration_seconds",
			Help:    "Duration of replica persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		syncPasses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "habitd_sync_passes_total",
			Help: "Sync passes by outcome (ok, offline, skipped)",
		}, []string{"outcome"}),

		syncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "habitd_sync_duration_seconds",
			Help:    "Duration of full sync passes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		recordsPulled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "habitd_records_pulled_total",
			Help: "Habit records pulled from the remote ledger",
		}),

		recordsPushed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "habitd_records_pushed_total",
			Help: "Habit records pushed to the remote ledger",
		}),

		mergeActions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "habitd_merge_actions_total",
			Help: "Merge engine decisions by action",
		}, []string{"action"}),

		rollovers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "habitd_rollovers_total",
			Help: "Completed week-boundary rollovers",
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "habitd_habits_total",
		Help: "Habit records currently in the local replica",
	}, func() float64 {
		return float64(service.Count())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "habitd_snapshots_total",
		Help: "Archived weekly score snapshots",
	}, func() float64 {
		return float64(service.SnapshotCount())
	})

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncSyncPasses(_ string)                           {}
func (n *noopMetrics) ObserveSyncDuration(_ time.Duration)              {}
func (n *noopMetrics) AddRecordsPulled(_ int)                           {}
func (n *noopMetrics) AddRecordsPushed(_ int)                           {}
func (n *noopMetrics) IncMergeAction(_ string)                          {}
func (n *noopMetrics) IncRollovers()                                    {}
