// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

// Package metrics holds the Prometheus collectors shared across AppGuard.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scan cycle metrics
	ScanTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appguard_scan_ticks_total",
			Help: "Scan ticks by outcome (completed, skipped, enumeration_failed)",
		},
		[]string{"outcome"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "appguard_scan_duration_seconds",
			Help:    "Duration of a full scan cycle in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	AppsScannedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appguard_apps_scanned_total",
			Help: "Applications scored, by verdict",
		},
		[]string{"verdict"},
	)

	AppScanFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appguard_app_scan_failures_total",
			Help: "Applications that could not be scored this cycle, by reason",
		},
		[]string{"reason"},
	)

	DedupSetSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "appguard_dedup_set_size",
			Help: "Number of package identifiers already scanned in this process",
		},
	)

	// Inference metrics
	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "appguard_inference_duration_seconds",
			Help:    "Duration of a single model inference in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	InferenceResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appguard_inference_results_total",
			Help: "Inference calls by decoded output kind or failure",
		},
		[]string{"result"},
	)

	InferenceBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "appguard_inference_breaker_state",
			Help: "Inference circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	ModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "appguard_model_loaded",
			Help: "1 when a threat model is loaded, 0 in degraded mode",
		},
	)

	// Event log metrics
	LogAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appguard_log_appends_total",
			Help: "Event log appends by action type",
		},
		[]string{"action"},
	)

	LogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "appguard_log_entries",
			Help: "Entries currently held by the event log",
		},
	)

	LogThreatEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "appguard_log_threat_entries",
			Help: "Threat entries currently held by the event log",
		},
	)

	LogListeners = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "appguard_log_listeners",
			Help: "Registered event log listeners",
		},
	)

	LogPersistFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appguard_log_persist_failures_total",
			Help: "Durable writes that failed or were dropped, by operation",
		},
		[]string{"operation"},
	)

	// Notification metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appguard_notifications_total",
			Help: "Notifications by notifier and status",
		},
		[]string{"notifier", "status"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appguard_api_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "appguard_api_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// WebSocket metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "appguard_websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appguard_websocket_messages_dropped_total",
			Help: "WebSocket broadcasts dropped because the hub queue was full",
		},
	)
)

// RecordScanTick records the outcome of one scan tick.
func RecordScanTick(outcome string, duration time.Duration) {
	ScanTicksTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		ScanDuration.Observe(duration.Seconds())
	}
}

// RecordAppScanned records a scored application.
func RecordAppScanned(verdict string) {
	AppsScannedTotal.WithLabelValues(verdict).Inc()
}

// RecordAppScanFailure records an application left unscored this cycle.
func RecordAppScanFailure(reason string) {
	AppScanFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordInference records one inference call.
func RecordInference(result string, duration time.Duration) {
	InferenceResultsTotal.WithLabelValues(result).Inc()
	InferenceDuration.Observe(duration.Seconds())
}

// RecordLogAppend records an event log append and the resulting sizes.
func RecordLogAppend(action string, total, threats int) {
	LogAppendsTotal.WithLabelValues(action).Inc()
	UpdateLogSize(total, threats)
}

// UpdateLogSize sets the event log size gauges.
func UpdateLogSize(total, threats int) {
	LogEntries.Set(float64(total))
	LogThreatEntries.Set(float64(threats))
}

// RecordPersistFailure records a failed or dropped durable write.
func RecordPersistFailure(operation string) {
	LogPersistFailuresTotal.WithLabelValues(operation).Inc()
}

// RecordNotification records a notification attempt.
func RecordNotification(notifier string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	NotificationsTotal.WithLabelValues(notifier, status).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetModelLoaded records whether a model is available.
func SetModelLoaded(loaded bool) {
	if loaded {
		ModelLoaded.Set(1)
		return
	}
	ModelLoaded.Set(0)
}
