package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Subscription gate.
	Subscriptions *prometheus.CounterVec // labels: outcome={success,invalid,failed}

	// Consoles and sessions.
	ActiveConsoles prometheus.Gauge
	SessionsIssued prometheus.Counter

	// Alert dispatch.
	Dispatches         *prometheus.CounterVec // labels: outcome={succeeded,failed,abandoned,rejected}
	DispatchesInFlight prometheus.Gauge
	DispatchDuration   prometheus.Histogram

	// Risk data.
	RiskPoints       *prometheus.GaugeVec // labels: level={high,medium}
	FeedSnapshots    prometheus.Counter
	FeedDecodeErrors prometheus.Counter
	FeedRunning      prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Subscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "subscriptions_total",
			Help:      "Subscription attempts by outcome.",
		}, []string{"outcome"}),
		ActiveConsoles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_dashboard",
			Name:      "active_consoles",
			Help:      "Console instances currently held for live sessions.",
		}),
		SessionsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "sessions_issued_total",
			Help:      "Session tokens issued after a successful subscription.",
		}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "dispatches_total",
			Help:      "Alert dispatch attempts by outcome.",
		}, []string{"outcome"}),
		DispatchesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_dashboard",
			Name:      "dispatches_in_flight",
			Help:      "Alert dispatch calls currently awaiting a response.",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_dashboard",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of alert dispatch calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RiskPoints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "flood_dashboard",
			Name:      "risk_points",
			Help:      "Risk points in the current set by level.",
		}, []string{"level"}),
		FeedSnapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "feed_snapshots_total",
			Help:      "Risk snapshots applied from the live feed.",
		}),
		FeedDecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "feed_decode_errors_total",
			Help:      "Live feed messages rejected as malformed.",
		}),
		FeedRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_dashboard",
			Name:      "feed_running",
			Help:      "1 when the live risk feed is consuming, 0 otherwise.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_dashboard",
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_dashboard",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Subscriptions,
		m.ActiveConsoles,
		m.SessionsIssued,
		m.Dispatches,
		m.DispatchesInFlight,
		m.DispatchDuration,
		m.RiskPoints,
		m.FeedSnapshots,
		m.FeedDecodeErrors,
		m.FeedRunning,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	}
}
