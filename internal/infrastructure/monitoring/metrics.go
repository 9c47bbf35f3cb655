package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopping_gateway"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// List backend metrics
	ListFetches       *prometheus.CounterVec
	ListFetchDuration prometheus.Histogram

	// Pricer metrics
	PriceLookups        *prometheus.CounterVec
	PriceLookupDuration prometheus.Histogram

	// Circuit breaker metrics
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec

	// Streaming metrics
	ActiveStreams prometheus.Gauge
	StreamedLines *prometheus.CounterVec
	StreamsEnded  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Tests pass
// their own prometheus.NewRegistry() so repeated construction does not collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds, including the whole stream",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ListFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "list_fetches_total",
				Help:      "Shopping list fetches by outcome",
			},
			[]string{"outcome"},
		),
		ListFetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "list_fetch_duration_seconds",
				Help:      "Shopping list fetch duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),

		PriceLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "price_lookups_total",
				Help:      "Price lookups by outcome (priced, failed, timeout, circuit_open, cancelled)",
			},
			[]string{"outcome"},
		),
		PriceLookupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "price_lookup_duration_seconds",
				Help:      "Price lookup duration in seconds, fallbacks included",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),

		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"breaker"},
		),
		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "breaker_transitions_total",
				Help:      "Circuit breaker state transitions",
			},
			[]string{"breaker", "from", "to"},
		),

		ActiveStreams: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_streams",
				Help:      "Number of priced-list streams in progress",
			},
		),
		StreamedLines: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "streamed_lines_total",
				Help:      "Priced lines written to callers",
			},
			[]string{"available"},
		),
		StreamsEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "streams_ended_total",
				Help:      "Finished streams by reason (complete, disconnected, aborted, list_unavailable)",
			},
			[]string{"reason"},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordListFetch records one list backend round trip
func (m *Metrics) RecordListFetch(outcome string, duration time.Duration) {
	m.ListFetches.WithLabelValues(outcome).Inc()
	m.ListFetchDuration.Observe(duration.Seconds())
}

// RecordPriceLookup records one price lookup, successful or not
func (m *Metrics) RecordPriceLookup(outcome string, duration time.Duration) {
	m.PriceLookups.WithLabelValues(outcome).Inc()
	m.PriceLookupDuration.Observe(duration.Seconds())
}

// SetBreakerState publishes the numeric breaker state
func (m *Metrics) SetBreakerState(breaker string, state float64) {
	m.BreakerState.WithLabelValues(breaker).Set(state)
}

// RecordBreakerTransition counts a breaker transition
func (m *Metrics) RecordBreakerTransition(breaker, from, to string) {
	m.BreakerTransitions.WithLabelValues(breaker, from, to).Inc()
}

// StreamStarted marks a stream as in progress and returns the function that ends it
func (m *Metrics) StreamStarted() func(reason string) {
	m.ActiveStreams.Inc()
	return func(reason string) {
		m.ActiveStreams.Dec()
		m.StreamsEnded.WithLabelValues(reason).Inc()
	}
}

// RecordStreamedLine counts one written line
func (m *Metrics) RecordStreamedLine(available bool) {
	if available {
		m.StreamedLines.WithLabelValues("true").Inc()
		return
	}
	m.StreamedLines.WithLabelValues("false").Inc()
}
