package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quake_compass"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dashboard refresh service.
type Metrics struct {
	Refreshes       *prometheus.CounterVec // labels: outcome={success,degenerate,invalid,source_error}
	RecordsRead     prometheus.Counter
	RecordsDropped  prometheus.Counter
	FallbackLoads   prometheus.Counter
	RegionsTracked  prometheus.Gauge
	RefreshDuration prometheus.Histogram
	ServiceRunning  prometheus.Gauge

	// Region backfill metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={resolved,empty,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsForTesting registers with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Dashboard recomputations by outcome.",
		}, []string{"outcome"}),
		RecordsRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Raw rows read from the batch source.",
		}),
		RecordsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Raw rows rejected by validation.",
		}),
		FallbackLoads: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_loads_total",
			Help:      "Refreshes served from the built-in fallback dataset.",
		}),
		RegionsTracked: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions_tracked",
			Help:      "Regions in the current dashboard snapshot.",
		}),
		RefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete load-and-aggregate cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ServiceRunning: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_loop_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		GeocodeRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Region backfill lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Region backfill cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when region backfill is enabled, 0 otherwise.",
		}),
	}
}
