package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks requests served by the web UI and JSON API.
// Paths are recorded as route patterns, never raw URLs.
type HTTPMetrics struct {
	collectorSet

	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	requestErrors *prometheus.CounterVec
	responseSize  *prometheus.HistogramVec
	renderLatency *prometheus.HistogramVec
	renderErrors  *prometheus.CounterVec
}

// NewHTTPMetrics builds the HTTP metric group and registers it.
func NewHTTPMetrics(registry prometheus.Registerer) (*HTTPMetrics, error) {
	const subsystem = "http"

	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name: "requests_total",
			Help: "Requests handled, by route and status code",
		}, []string{"method", "path", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name:    "request_duration_seconds",
			Help:    "Request handling latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name: "request_errors_total",
			Help: "Requests answered with a 4xx or 5xx status",
		}, []string{"method", "path", "error_type"}),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name:    "response_size_bytes",
			Help:    "Response body size",
			Buckets: prometheus.ExponentialBuckets(BucketStart100B, BucketFactor2, BucketCount15),
		}, []string{"method", "path"}),
		renderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name:    "template_render_duration_seconds",
			Help:    "Time spent executing page templates",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		}, []string{"template"}),
		renderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: subsystem,
			Name: "template_render_errors_total",
			Help: "Template executions that failed",
		}, []string{"template", "error_type"}),
	}
	m.collectorSet = collectorSet{m.requests, m.latency, m.requestErrors, m.responseSize, m.renderLatency, m.renderErrors}

	if err := register(registry, m.collectorSet); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordHTTPRequest counts a finished request and observes its latency in seconds.
func (m *HTTPMetrics) RecordHTTPRequest(method, path string, statusCode int, duration float64) {
	m.requests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.latency.WithLabelValues(method, path).Observe(duration)
}

// RecordHTTPRequestError counts a failed request. errorType is client_error or server_error.
func (m *HTTPMetrics) RecordHTTPRequestError(method, path, errorType string) {
	m.requestErrors.WithLabelValues(method, path, errorType).Inc()
}

func (m *HTTPMetrics) RecordHTTPResponseSize(method, path string, sizeBytes int64) {
	m.responseSize.WithLabelValues(method, path).Observe(float64(sizeBytes))
}

func (m *HTTPMetrics) RecordTemplateRender(template string, duration float64) {
	m.renderLatency.WithLabelValues(template).Observe(duration)
}

func (m *HTTPMetrics) RecordTemplateRenderError(template, errorType string) {
	m.renderErrors.WithLabelValues(template, errorType).Inc()
}
