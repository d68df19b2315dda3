// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the feature-serving engine.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - It mirrors the lookup.Source capability-interface pattern used
//     elsewhere in the project, letting the rest of the codebase depend on
//     this interface while keeping concrete metric systems isolated in
//     subpackages.
//
// The primary use case is instrumenting per-request pipeline execution
// (requests, rows produced, ledger errors, lookup-source calls) without
// coupling the catalog and HTTP layer to a specific metrics system such as
// Prometheus or Datadog.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends. It is
// intentionally generic so we can plug in Prometheus, Datadog, etc.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordRequest records one /process call for pipeline, its outcome, and
// its wall-clock duration.
func RecordRequest(pipeline string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"pipeline": pipeline, "status": status}
	backend.IncCounter("piper_requests_total", 1, lbls)
	backend.ObserveHistogram("piper_request_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments the row-output counter for pipeline.
func RecordRows(pipeline string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("piper_rows_total", float64(delta), Labels{"pipeline": pipeline})
}

// RecordLedgerErrors increments the cell-error counter surfaced in a
// request's ledger.
func RecordLedgerErrors(pipeline string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("piper_ledger_errors_total", float64(delta), Labels{"pipeline": pipeline})
}

// RecordLookup records one lookup.Source.Get call, its outcome, and its
// duration.
func RecordLookup(source string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"source": source, "status": status}
	backend.IncCounter("piper_lookup_calls_total", 1, lbls)
	backend.ObserveHistogram("piper_lookup_duration_seconds", d.Seconds(), lbls)
}
