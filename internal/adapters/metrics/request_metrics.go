package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetricsCollector handles request execution metrics
type RequestMetricsCollector struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	inFlight        *prometheus.GaugeVec
}

// NewRequestMetricsCollector creates a new request metrics collector
func NewRequestMetricsCollector() *RequestMetricsCollector {
	return &RequestMetricsCollector{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "request_duration_seconds",
				Help:      "Request handling duration distribution",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"request_type", "status"},
		),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "requests_total",
				Help:      "Total number of requests handled by type, status and error kind",
			},
			[]string{"request_type", "status", "error_kind"},
		),

		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "requests_in_flight",
				Help:      "Requests currently being handled",
			},
			[]string{"request_type"},
		),
	}
}

// Register registers all request metrics with registerer
func (c *RequestMetricsCollector) Register(registerer prometheus.Registerer) error {
	return registerAll(registerer, c.requestDuration, c.requestsTotal, c.inFlight)
}

// RecordRequest records one finished request. errorKind is empty on success.
func (c *RequestMetricsCollector) RecordRequest(requestType string, duration float64, errorKind string) {
	status := "success"
	if errorKind != "" {
		status = "failure"
	}
	c.requestDuration.WithLabelValues(requestType, status).Observe(duration)
	c.requestsTotal.WithLabelValues(requestType, status, errorKind).Inc()
}

func (c *RequestMetricsCollector) started(requestType string) {
	c.inFlight.WithLabelValues(requestType).Inc()
}

func (c *RequestMetricsCollector) finished(requestType string) {
	c.inFlight.WithLabelValues(requestType).Dec()
}
