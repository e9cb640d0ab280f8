// Package metrics provides a small, backend-agnostic abstraction for
// recording operational metrics from the ingestion run.
//
// It exposes a narrow interface (Backend) focused on counters and durations,
// with a global, pluggable backend that defaults to a no-op implementation:
// metrics are always safe to call even when no real backend is configured.
// Concrete systems (Prometheus Pushgateway) live in subpackages and are the
// only places importing client libraries.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a duration-style value in seconds.
	ObserveDuration(name string, seconds float64, labels Labels)
	// Flush pushes metrics if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics stay optional.
type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)      {}
func (nopBackend) ObserveDuration(string, float64, Labels) {}
func (nopBackend) Flush() error                            { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the current one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// RecordStep measures one pipeline step: latency plus success/failure.
func RecordStep(step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"step": step, "status": status}
	backend.IncCounter("flightdb_steps_total", 1, lbls)
	backend.ObserveDuration("flightdb_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows counts rows written to a table.
func RecordRows(table string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("flightdb_rows_total", float64(delta), Labels{"table": table})
}

// RecordBatch counts one processed source batch.
func RecordBatch() {
	backend.IncCounter("flightdb_batches_total", 1, nil)
}
