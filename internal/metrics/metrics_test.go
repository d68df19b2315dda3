package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordRequest_SuccessAndFailure(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordRequest("scored", nil, 2*time.Second)
	RecordRequest("scored", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.callsCounters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.callsCounters))
	}
	if len(fb.callsHistograms) != 2 {
		t.Fatalf("expected 2 histogram calls, got %d", len(fb.callsHistograms))
	}

	cc0 := fb.callsCounters[0]
	if cc0.name != "piper_requests_total" || cc0.delta != 1 {
		t.Fatalf("counter[0] = %#v; want name=piper_requests_total, delta=1", cc0)
	}
	if got := cc0.labels["pipeline"]; got != "scored" {
		t.Fatalf("counter[0].labels[pipeline]=%q; want %q", got, "scored")
	}
	if got := cc0.labels["status"]; got != "success" {
		t.Fatalf("counter[0].labels[status]=%q; want %q", got, "success")
	}

	h0 := fb.callsHistograms[0]
	if h0.name != "piper_request_duration_seconds" {
		t.Fatalf("hist[0].name=%q; want piper_request_duration_seconds", h0.name)
	}
	if h0.value < 2.0-0.001 || h0.value > 2.0+0.001 {
		t.Fatalf("hist[0].value=%v; want ~2.0", h0.value)
	}

	cc1 := fb.callsCounters[1]
	if cc1.labels["status"] != "failure" {
		t.Fatalf("counter[1].labels[status]=%q; want %q", cc1.labels["status"], "failure")
	}
	h1 := fb.callsHistograms[1]
	if h1.value < 1.5-0.001 || h1.value > 1.5+0.001 {
		t.Fatalf("hist[1].value=%v; want ~1.5", h1.value)
	}
}

func TestRecordRowsAndLedgerErrors(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordRows("scored", 3)
	RecordRows("scored", 0) // should be ignored
	RecordLedgerErrors("scored", 2)
	RecordLedgerErrors("scored", -1) // should be ignored

	if len(fb.callsCounters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.callsCounters))
	}

	c0 := fb.callsCounters[0]
	if c0.name != "piper_rows_total" || c0.delta != 3 {
		t.Fatalf("counter[0] = %#v; want name=piper_rows_total, delta=3", c0)
	}
	if c0.labels["pipeline"] != "scored" {
		t.Fatalf("counter[0] labels = %v; want pipeline=scored", c0.labels)
	}

	c1 := fb.callsCounters[1]
	if c1.name != "piper_ledger_errors_total" || c1.delta != 2 {
		t.Fatalf("counter[1] = %#v; want name=piper_ledger_errors_total, delta=2", c1)
	}
}

func TestRecordLookup_SuccessAndFailure(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordLookup("users", nil, 10*time.Millisecond)
	RecordLookup("users", errors.New("timeout"), 5*time.Millisecond)

	if len(fb.callsCounters) != 2 || len(fb.callsHistograms) != 2 {
		t.Fatalf("expected 2 counter and 2 histogram calls, got %d/%d", len(fb.callsCounters), len(fb.callsHistograms))
	}

	c0 := fb.callsCounters[0]
	if c0.name != "piper_lookup_calls_total" || c0.labels["source"] != "users" || c0.labels["status"] != "success" {
		t.Fatalf("counter[0] = %#v; want piper_lookup_calls_total/users/success", c0)
	}
	c1 := fb.callsCounters[1]
	if c1.labels["status"] != "failure" {
		t.Fatalf("counter[1].labels[status]=%q; want failure", c1.labels["status"])
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)

	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}

	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	// SetBackend(nil) should not nil out the backend.
	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
