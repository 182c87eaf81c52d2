// Package metrics provides Prometheus metrics collection for HTTP requests
// and background tasks.
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	subsystem = "app"
)

// Task metric counter indices.
const (
	TaskMetricTotal = iota
	TaskMetricTotalSuccess
	TaskMetricTotalFailed
	TaskMetricTotalDropped
)

// Metrics provides Prometheus metrics collection.
type Metrics struct {
	reg *prometheus.Registry

	TotalHTTPRequestsCounter prometheus.Counter
	HTTPRequestsCounters     map[int]prometheus.Counter
	httpCountersMu           sync.Mutex
	HTTPDurationHistogram    prometheus.Histogram

	TaskMetricCounters map[int]prometheus.Counter

	customMetrics []prometheus.Collector

	log logger.Logger
}

// NewMetrics creates a new Metrics instance with the specified collectors enabled.
func NewMetrics(httpCounters, taskMetrics bool, l logger.Logger) Metrics {
	m := Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}
	if httpCounters {
		m.TotalHTTPRequestsCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_http_requests",
			Help:      "Total HTTP requests",
		})
		m.reg.MustRegister(m.TotalHTTPRequestsCounter)
		m.HTTPRequestsCounters = make(map[int]prometheus.Counter)

		m.HTTPDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 1.0, 3.0, 5.0, 7.0, 10.0},
		})
		m.reg.MustRegister(m.HTTPDurationHistogram)
	}
	if taskMetrics {
		m.TaskMetricCounters = getTaskMetricCounters()
		for k := range m.TaskMetricCounters {
			m.reg.MustRegister(m.TaskMetricCounters[k])
		}
	}
	return m
}

func getTaskMetricCounters() map[int]prometheus.Counter {
	m := make(map[int]prometheus.Counter)
	m[TaskMetricTotal] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_tasks_handled",
		Help:      "Total background tasks handled",
	})
	m[TaskMetricTotalSuccess] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_tasks_successful",
		Help:      "Total background tasks handled successfully",
	})
	m[TaskMetricTotalFailed] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_tasks_failed",
		Help:      "Total background tasks handled unsuccessfully",
	})
	m[TaskMetricTotalDropped] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_tasks_dropped",
		Help:      "Total background tasks dropped because the queue was full",
	})
	return m
}

// IncrementTaskCounter increments one of the task metric counters if enabled.
func (m *Metrics) IncrementTaskCounter(index int) {
	if m.TaskMetricCounters == nil {
		return
	}
	if c, ok := m.TaskMetricCounters[index]; ok {
		c.Inc()
	}
}

// AddCustomMetric registers a custom Prometheus collector.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	m.customMetrics = append(m.customMetrics, c)
	m.reg.MustRegister(m.customMetrics[len(m.customMetrics)-1])
}

// Handler returns an HTTP handler serving the registry, for mounting on an
// existing router.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// IncrementHTTPResponseCounter increments the counter for the given HTTP
// status code, registering it on first use. Safe for concurrent request
// goroutines.
func (m *Metrics) IncrementHTTPResponseCounter(code int) {
	m.httpCountersMu.Lock()
	c, ok := m.HTTPRequestsCounters[code]
	if !ok {
		c = newTotalHTTPReqMetric(code)
		m.HTTPRequestsCounters[code] = c
		m.reg.MustRegister(c)
	}
	m.httpCountersMu.Unlock()
	c.Inc()
}

func newTotalHTTPReqMetric(code int) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      fmt.Sprintf("total_%d_http_responses", code),
		Help:      fmt.Sprintf("Total %s HTTP responses returned", http.StatusText(code)),
	})
}

// HTTPMiddleware returns a chi-compatible middleware that tracks HTTP metrics.
// When HTTP counters were not enabled it is a pass-through.
func (m *Metrics) HTTPMiddleware() func(http.Handler) http.Handler {
	if m.TotalHTTPRequestsCounter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.TotalHTTPRequestsCounter.Inc()

			rw := &responseWriter{ResponseWriter: w, statusCode: 200}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			m.HTTPDurationHistogram.Observe(duration.Seconds())
			m.IncrementHTTPResponseCounter(rw.statusCode)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
