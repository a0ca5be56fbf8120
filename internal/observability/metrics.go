package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "marine_watch"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Routing metrics.
	RoutesPlanned prometheus.Counter
	RouteLegs     prometheus.Histogram

	// Hazard registry metrics.
	HazardsReported *prometheus.CounterVec // labels: type
	HazardVotes     *prometheus.CounterVec // labels: direction={up,down}
	HazardsVerified prometheus.Counter
	HazardsRemoved  prometheus.Counter
	HazardsActive   prometheus.Gauge

	// Notification gate metrics.
	NotificationDecisions *prometheus.CounterVec // labels: decision={sent,suppressed}

	// Hazard update publisher metrics.
	UpdatesPublished prometheus.Counter
	UpdatesDropped   prometheus.Counter
	PublishErrors    prometheus.Counter
	PublisherRunning prometheus.Gauge
	PublishBatchSize prometheus.Histogram
	PublishDuration  prometheus.Histogram

	// HTTP API metrics.
	APIRequestsLimited prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RoutesPlanned,
		m.RouteLegs,
		m.HazardsReported,
		m.HazardVotes,
		m.HazardsVerified,
		m.HazardsRemoved,
		m.HazardsActive,
		m.NotificationDecisions,
		m.UpdatesPublished,
		m.UpdatesDropped,
		m.PublishErrors,
		m.PublisherRunning,
		m.PublishBatchSize,
		m.PublishDuration,
		m.APIRequestsLimited,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RoutesPlanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_planned_total",
			Help:      "Total routes generated.",
		}),
		RouteLegs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_legs",
			Help:      "Number of legs per generated route.",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50},
		}),
		HazardsReported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazards_reported_total",
			Help:      "Hazards reported by type.",
		}, []string{"type"}),
		HazardVotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazard_votes_total",
			Help:      "Votes applied to registered hazards by direction.",
		}, []string{"direction"}),
		HazardsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazards_verified_total",
			Help:      "Hazards that crossed the upvote threshold.",
		}),
		HazardsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazards_removed_total",
			Help:      "Hazards removed by the downvote threshold.",
		}),
		HazardsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hazards_active",
			Help:      "Hazards currently in the registry.",
		}),
		NotificationDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_decisions_total",
			Help:      "Throttle gate decisions by outcome.",
		}, []string{"decision"}),
		UpdatesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazard_updates_published_total",
			Help:      "Hazard updates written to the sink topic.",
		}),
		UpdatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazard_updates_dropped_total",
			Help:      "Hazard updates dropped because the publish queue was full.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazard_publish_errors_total",
			Help:      "Failed attempts to write a batch of hazard updates.",
		}),
		PublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publisher_running",
			Help:      "1 when the hazard publisher is active, 0 when shut down.",
		}),
		PublishBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_batch_size",
			Help:      "Number of hazard updates per published batch.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_duration_seconds",
			Help:      "Duration of a successful batch write including retries.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		APIRequestsLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_limited_total",
			Help:      "Mutating API requests rejected by the rate limiter.",
		}),
	}
}
