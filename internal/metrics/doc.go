// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

/*
Package metrics provides Prometheus metrics for the scanning pipeline.

All collectors are registered with the default registry through promauto
and exposed at /metrics by the API router:

	curl http://127.0.0.1:8470/metrics

# Available Metrics

Scan Metrics:
  - appguard_scan_ticks_total: scan ticks (counter)
    Labels: outcome (completed, skipped, enumeration_failed)
  - appguard_scan_duration_seconds: full cycle duration (histogram)
  - appguard_apps_scanned_total: apps scored (counter)
    Labels: verdict
  - appguard_app_scan_failures_total: apps not scored this cycle (counter)
    Labels: reason
  - appguard_dedup_set_size: packages already scanned (gauge)

Inference Metrics:
  - appguard_inference_duration_seconds: single inference latency (histogram)
  - appguard_inference_results_total: inference calls (counter)
    Labels: result (label, boxed_label, probability, or a failure reason)
  - appguard_inference_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - appguard_model_loaded: 1 when a model is loaded (gauge)

Event Log Metrics:
  - appguard_log_appends_total: appends (counter)
    Labels: action
  - appguard_log_entries, appguard_log_threat_entries: current size (gauge)
  - appguard_log_listeners: registered listeners (gauge)
  - appguard_log_persist_failures_total: failed or dropped writes (counter)
    Labels: operation

Notification and API Metrics:
  - appguard_notifications_total: deliveries (counter)
    Labels: notifier, status
  - appguard_api_requests_total: HTTP requests (counter)
    Labels: method, route, status
  - appguard_api_request_duration_seconds: HTTP latency (histogram)
    Labels: method, route
  - appguard_websocket_connections: active clients (gauge)
  - appguard_websocket_messages_dropped_total: dropped broadcasts (counter)

BadgerDB store metrics live in internal/store next to the code that
records them.

# Thread Safety

Prometheus collectors are safe for concurrent use; the Record helpers may
be called from any goroutine.
*/
package metrics
