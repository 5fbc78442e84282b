// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for store operations
var (
	storeWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "appguard_store_writes_total",
		Help: "Total number of event log entries written to BadgerDB",
	})

	storeWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "appguard_store_write_failures_total",
		Help: "Total number of failed BadgerDB writes",
	})

	storeWriteLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "appguard_store_write_latency_seconds",
		Help:    "BadgerDB write latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	storeClearsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "appguard_store_clears_total",
		Help: "Total number of delete-all operations",
	})

	storeRestoredEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "appguard_store_restored_entries_total",
		Help: "Total number of entries read back from BadgerDB",
	})

	storeGCRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "appguard_store_gc_runs_total",
		Help: "Total number of value log GC runs",
	})

	storeGCLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "appguard_store_gc_latency_seconds",
		Help:    "Value log GC latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
)

// RecordWrite records a successful write and its latency.
func RecordWrite(latencySeconds float64) {
	storeWritesTotal.Inc()
	storeWriteLatency.Observe(latencySeconds)
}

// RecordWriteFailure records a failed write.
func RecordWriteFailure() {
	storeWriteFailures.Inc()
}

// RecordClear records a delete-all.
func RecordClear() {
	storeClearsTotal.Inc()
}

// RecordRestored records entries read back at startup.
func RecordRestored(n int) {
	storeRestoredEntries.Add(float64(n))
}

// RecordGC records a value log GC run.
func RecordGC(latencySeconds float64) {
	storeGCRuns.Inc()
	storeGCLatency.Observe(latencySeconds)
}
