// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

/*
Package config loads and validates AppGuard configuration.

Configuration is layered with Koanf v2: built-in defaults, then an optional
YAML file, then environment variables. Later layers override earlier ones.

# Config File

The file is taken from CONFIG_PATH, or the first of DefaultConfigPaths that
exists:

	scanner:
	  interval: 30s
	  scan_timeout: 10m
	  record_cycles: false
	model:
	  path: /data/appguard/model.json
	inventory:
	  manifest_path: /data/appguard/apps.json
	store:
	  path: /data/appguard/eventlog
	notify:
	  webhook:
	    enabled: true
	    url: https://hooks.example.com/appguard
	    headers:
	      Authorization: Bearer token
	  nats:
	    enabled: true
	    embedded: true
	server:
	  host: 127.0.0.1
	  port: 8470
	  cors_origins: ["http://localhost:5173"]

# Environment Variables

Only mapped variables are read. The most common ones:

Scanner:
  - SCAN_INTERVAL: Time between background scans (default: 30s)
  - SCAN_TIMEOUT: Upper bound of one scan cycle (default: 10m)
  - SCAN_RECORD_CYCLES: Log SCAN_STARTED/SCAN_COMPLETED entries (default: false)
  - SCAN_NOTIFY_RESULTS: Notify every scan result, not only threats (default: false)

Model and inventory:
  - MODEL_PATH: Model artifact (default: /data/appguard/model.json)
  - MODEL_BREAKER_THRESHOLD: Consecutive inference failures that open the breaker (default: 5)
  - INVENTORY_MANIFEST: Installed-application manifest (default: /data/appguard/apps.json)

Persistence:
  - STORE_ENABLED: Mirror the event log to BadgerDB (default: true)
  - STORE_PATH: BadgerDB directory (default: /data/appguard/eventlog)

Notifications:
  - WEBHOOK_ENABLED, WEBHOOK_URL: HTTP POST notifications
  - NATS_ENABLED, NATS_URL, NATS_SUBJECT: NATS notifications
  - NATS_EMBEDDED: Run an in-process NATS server

Server and logging:
  - HTTP_HOST, HTTP_PORT: Listen address (default: 127.0.0.1:8470)
  - CORS_ORIGINS: Comma-separated allowed origins
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

See envMappings for the complete list.

# Validation

Load validates the merged result. Errors are *ValidationError values naming
the koanf key at fault:

	cfg, err := config.Load()
	var verr *config.ValidationError
	if errors.As(err, &verr) {
	    fmt.Println(verr.Key)
	}
*/
package config
