// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

/*
Package main is the entry point for the AppGuard scanning service.

AppGuard periodically enumerates installed applications, encodes each one
into a fixed-width feature vector, scores it with a bundled classifier model
and records every verdict in an append-only event log. Threats raise
notifications and are pushed live to WebSocket clients.

# Application Architecture

	RootSupervisor ("appguard")
	├── DataSupervisor ("data-layer")
	│   └── store-gc (BadgerDB value log GC, if the store is enabled)
	├── ScanSupervisor ("scan-layer")
	│   ├── scan-coordinator
	│   └── websocket-hub
	└── APISupervisor ("api-layer")
	    └── http-server

Component initialization order:

 1. Configuration: koanf v2 (defaults, YAML file, environment)
 2. Logging: zerolog with JSON or console output
 3. Event store: BadgerDB, restored into the in-memory event log
 4. Model: read from disk; a missing or invalid model starts degraded
 5. Notifications: log, webhook, NATS and WebSocket channels
 6. Scan coordinator: inventory source, classifier, event log
 7. HTTP API: chi router, CORS, rate limiting, Prometheus metrics
 8. Supervisor tree: suture v4

# Degraded Mode

If the model cannot be loaded the process still starts. An ERROR entry is
written to the event log and scans count every app as a scoring failure
without recording verdicts. /api/v1/health reports "degraded" and the load
error is exposed as model.load_error in /api/v1/scanner/status. Readiness
only tracks the scanner, so /api/v1/health/ready stays 200.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The tree stops the HTTP server,
waits for an in-flight scan, then main drains notification deliveries and
pending store writes before closing BadgerDB.

# Example Usage

	export MODEL_PATH=/data/appguard/model.json
	export INVENTORY_MANIFEST=/data/appguard/apps.json
	export SCAN_INTERVAL=1m
	export LOG_FORMAT=console
	./appguard

With NATS alerts through an embedded server:

	export NATS_ENABLED=true
	export NATS_EMBEDDED=true
	export NATS_JETSTREAM=true
	./appguard
*/
package main
