package promweb

import (
	"net/http/httptest"
	"testing"

	"piper/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func readCounterValue(t *testing.T, c interface {
	Write(*dto.Metric) error
}) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

func readHistogramCountSum(t *testing.T, h interface {
	Write(*dto.Metric) error
}) (uint64, float64) {
	t.Helper()
	m := &dto.Metric{}
	if err := h.Write(m); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if m.GetHistogram() == nil {
		t.Fatalf("metric did not contain Histogram value")
	}
	return m.GetHistogram().GetSampleCount(), m.GetHistogram().GetSampleSum()
}

func TestNewBackend_RegistersAllCollectors(t *testing.T) {
	b, err := NewBackend()
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if b.reg == nil {
		t.Fatalf("reg is nil")
	}
	// A second backend must be able to register its own registry without
	// colliding with the first (each Backend owns a private registry).
	if _, err := NewBackend(); err != nil {
		t.Fatalf("second NewBackend() error = %v", err)
	}
}

func TestIncCounter_RoutesByName(t *testing.T) {
	tests := []struct {
		name   string
		metric string
		delta  float64
		labels metrics.Labels
		check  func(t *testing.T, b *Backend)
	}{
		{
			name:   "requests",
			metric: "piper_requests_total",
			delta:  3,
			labels: metrics.Labels{"pipeline": "scored", "status": "success"},
			check: func(t *testing.T, b *Backend) {
				got := readCounterValue(t, b.requestCounter.WithLabelValues("scored", "success"))
				if got != 3 {
					t.Fatalf("requestCounter = %v, want 3", got)
				}
			},
		},
		{
			name:   "rows",
			metric: "piper_rows_total",
			delta:  5,
			labels: metrics.Labels{"pipeline": "scored"},
			check: func(t *testing.T, b *Backend) {
				got := readCounterValue(t, b.rowCounter.WithLabelValues("scored"))
				if got != 5 {
					t.Fatalf("rowCounter = %v, want 5", got)
				}
			},
		},
		{
			name:   "ledger errors",
			metric: "piper_ledger_errors_total",
			delta:  2,
			labels: metrics.Labels{"pipeline": "scored"},
			check: func(t *testing.T, b *Backend) {
				got := readCounterValue(t, b.ledgerErrors.WithLabelValues("scored"))
				if got != 2 {
					t.Fatalf("ledgerErrors = %v, want 2", got)
				}
			},
		},
		{
			name:   "lookup calls",
			metric: "piper_lookup_calls_total",
			delta:  1,
			labels: metrics.Labels{"source": "users", "status": "success"},
			check: func(t *testing.T, b *Backend) {
				got := readCounterValue(t, b.lookupCounter.WithLabelValues("users", "success"))
				if got != 1 {
					t.Fatalf("lookupCounter = %v, want 1", got)
				}
			},
		},
		{
			name:   "unknown metric name is ignored",
			metric: "not_a_real_metric",
			delta:  10,
			labels: metrics.Labels{"pipeline": "scored"},
			check: func(t *testing.T, b *Backend) {
				got := readCounterValue(t, b.requestCounter.WithLabelValues("scored", "success"))
				if got != 0 {
					t.Fatalf("requestCounter = %v, want 0 (unchanged)", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend()
			if err != nil {
				t.Fatalf("NewBackend() error = %v", err)
			}
			b.IncCounter(tt.metric, tt.delta, tt.labels)
			tt.check(t, b)
		})
	}
}

func TestObserveHistogram_RoutesByName(t *testing.T) {
	b, err := NewBackend()
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.ObserveHistogram("piper_request_duration_seconds", 0.25, metrics.Labels{"pipeline": "scored", "status": "success"})
	count, sum := readHistogramCountSum(t, b.requestDuration.WithLabelValues("scored", "success").(prometheus.Histogram))
	if count != 1 || sum != 0.25 {
		t.Fatalf("requestDuration count/sum = %d/%v, want 1/0.25", count, sum)
	}

	b.ObserveHistogram("unknown_duration_seconds", 9.0, metrics.Labels{"pipeline": "scored", "status": "success"})
	count, _ = readHistogramCountSum(t, b.requestDuration.WithLabelValues("scored", "success").(prometheus.Histogram))
	if count != 1 {
		t.Fatalf("requestDuration count after unknown metric = %d, want unchanged at 1", count)
	}
}

func TestFlush_IsNoop(t *testing.T) {
	b, err := NewBackend()
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v, want nil", err)
	}
}

func TestServeMetrics_ExposesRegisteredSeries(t *testing.T) {
	b, err := NewBackend()
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter("piper_requests_total", 1, metrics.Labels{"pipeline": "scored", "status": "success"})

	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	b.ServeMetrics(c)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !contains(rec.Body.String(), "piper_requests_total") {
		t.Fatalf("body missing piper_requests_total:\n%s", rec.Body.String())
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
