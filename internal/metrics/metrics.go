// Package metrics exposes Prometheus metrics for the server and the worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

const namespace = "dompet"

// Collector owns every metric and the registry they live in.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	exports      *prometheus.CounterVec
	exportedRows *prometheus.CounterVec

	circuitState *prometheus.GaugeVec
	circuitOpens *prometheus.CounterVec

	reportCache *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latencies in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "Spreadsheet export attempts by source and result",
			},
			[]string{"source", "result"},
		),
		exportedRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exported_rows_total",
				Help:      "Rows appended to the spreadsheet report",
			},
			[]string{"source"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"breaker"},
		),
		circuitOpens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_opens_total",
				Help:      "Number of times a circuit breaker opened",
			},
			[]string{"breaker"},
		),
		reportCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_cache_lookups_total",
				Help:      "Analytics report cache lookups by result",
			},
			[]string{"result"},
		),
	}

	c.registry.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.exports,
		c.exportedRows,
		c.circuitState,
		c.circuitOpens,
		c.reportCache,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return c
}

// Registry is exposed for tests and for extra collectors.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordExport implements worker.Recorder.
func (c *Collector) RecordExport(source, result string, rows int) {
	c.exports.WithLabelValues(source, result).Inc()
	if rows > 0 {
		c.exportedRows.WithLabelValues(source).Add(float64(rows))
	}
}

// RecordBreakerState matches amqp.StateChangeFunc.
func (c *Collector) RecordBreakerState(name string, _, to gobreaker.State) {
	c.circuitState.WithLabelValues(name).Set(float64(to))
	if to == gobreaker.StateOpen {
		c.circuitOpens.WithLabelValues(name).Inc()
	}
}

func (c *Collector) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.reportCache.WithLabelValues(result).Inc()
}

// Middleware records request counts and latencies labelled by route template.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(srw, r)

		endpoint := endpointOf(r)
		c.httpRequests.WithLabelValues(r.Method, endpoint, strconv.Itoa(srw.statusCode)).Inc()
		c.httpDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// endpointOf keeps label cardinality bounded: unmatched paths collapse into one label.
func endpointOf(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return tpl
}
