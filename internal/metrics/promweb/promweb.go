// Package promweb implements a Prometheus backend for the metrics package
// that is scraped over HTTP rather than pushed to a gateway: a long-running
// request/response server exposes its own /metrics endpoint for Prometheus
// to pull, instead of shipping metrics to a batch-job Pushgateway.
//
// It adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and HistogramVec collectors.
//   - Mapping the piper_* metric names and labels onto Prometheus label sets.
//   - Serving the registry's current state via promhttp on demand, so
//     ServeMetrics can be wired directly into an httpapi GET /metrics route.
package promweb

import (
	"fmt"

	"piper/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend is a pull-based Prometheus metrics backend.
type Backend struct {
	reg *prometheus.Registry

	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rowCounter      *prometheus.CounterVec
	ledgerErrors    *prometheus.CounterVec
	lookupCounter   *prometheus.CounterVec
	lookupDuration  *prometheus.HistogramVec
}

// NewBackend constructs a Prometheus backend and registers its collectors.
func NewBackend() (*Backend, error) {
	reg := prometheus.NewRegistry()

	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piper_requests_total",
			Help: "Total number of /process pipeline executions, partitioned by pipeline and status.",
		},
		[]string{"pipeline", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "piper_request_duration_seconds",
			Help:    "Duration of a single pipeline execution in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pipeline", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piper_rows_total",
			Help: "Total number of output rows produced, partitioned by pipeline.",
		},
		[]string{"pipeline"},
	)
	ledgerErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piper_ledger_errors_total",
			Help: "Total number of cell-level errors surfaced in a pipeline's error ledger.",
		},
		[]string{"pipeline"},
	)
	lookupCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piper_lookup_calls_total",
			Help: "Total number of lookup source calls, partitioned by source and status.",
		},
		[]string{"source", "status"},
	)
	lookupDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "piper_lookup_duration_seconds",
			Help:    "Duration of a lookup source call in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "status"},
	)

	for _, c := range []prometheus.Collector{requestCounter, requestDuration, rowCounter, ledgerErrors, lookupCounter, lookupDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("promweb: register collector: %w", err)
		}
	}

	return &Backend{
		reg:             reg,
		requestCounter:  requestCounter,
		requestDuration: requestDuration,
		rowCounter:      rowCounter,
		ledgerErrors:    ledgerErrors,
		lookupCounter:   lookupCounter,
		lookupDuration:  lookupDuration,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "piper_requests_total":
		b.requestCounter.WithLabelValues(labels["pipeline"], labels["status"]).Add(delta)
	case "piper_rows_total":
		b.rowCounter.WithLabelValues(labels["pipeline"]).Add(delta)
	case "piper_ledger_errors_total":
		b.ledgerErrors.WithLabelValues(labels["pipeline"]).Add(delta)
	case "piper_lookup_calls_total":
		b.lookupCounter.WithLabelValues(labels["source"], labels["status"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case "piper_request_duration_seconds":
		b.requestDuration.WithLabelValues(labels["pipeline"], labels["status"]).Observe(value)
	case "piper_lookup_duration_seconds":
		b.lookupDuration.WithLabelValues(labels["source"], labels["status"]).Observe(value)
	default:
		// unknown metric name: ignore
	}
}

// Flush is a no-op for a pull-based backend: there is nothing to push,
// Prometheus scrapes ServeMetrics on its own schedule.
func (b *Backend) Flush() error { return nil }

// ServeMetrics implements httpapi.MetricsHandler, exposing the registry in
// the standard Prometheus text exposition format.
func (b *Backend) ServeMetrics(c *gin.Context) {
	promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{}).ServeHTTP(c.Writer, c.Request)
}
