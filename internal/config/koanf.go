// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/appguard/internal/notify"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"appguard.yaml",
	"appguard.yml",
	"/etc/appguard/config.yaml",
	"/etc/appguard/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Scanner: ScannerConfig{
			Interval:          30 * time.Second,
			ScanTimeout:       10 * time.Minute,
			RecordCycles:      false,
			RecordLifecycle:   true,
			NotifyScanResults: false,
		},
		Model: ModelConfig{
			Path:                    "/data/appguard/model.json",
			BreakerFailureThreshold: 5,
			BreakerTimeout:          60 * time.Second,
			BreakerInterval:         0, // never clear while closed
			BreakerMaxRequests:      1,
		},
		Inventory: InventoryConfig{
			ManifestPath: "/data/appguard/apps.json",
		},
		EventLog: EventLogConfig{
			QueueSize:    256,
			WriteTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Enabled:          true,
			Path:             "/data/appguard/eventlog",
			SyncWrites:       true,
			MemTableSize:     16 << 20, // 16MB
			ValueLogFileSize: 64 << 20, // 64MB
			NumCompactors:    2,
			Compression:      true,
			GCInterval:       time.Hour,
			GCRatio:          0.5,
			CloseTimeout:     30 * time.Second,
		},
		Notify: NotifyConfig{
			Timeout: 10 * time.Second,
			Log:     LogNotifyConfig{Enabled: true},
			Webhook: notify.WebhookConfig{
				Enabled:     false,
				RateLimitMs: 500,
				Timeout:     10 * time.Second,
			},
			NATS: notify.DefaultNATSConfig(),
		},
		Server: ServerConfig{
			Host:              "127.0.0.1", // on-device API, not exposed by default
			Port:              8470,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			RequestTimeout:    30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  30 * time.Second,
		},
	}
}

// Load reads configuration with Koanf v2 from layered sources:
//  1. Defaults
//  2. Config File: optional YAML config file (if exists)
//  3. Environment Variables: override any mapped setting
//
// The result is validated before it is returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// SCAN_INTERVAL -> scanner.interval
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while YAML lists arrive as slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower case) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Scanner
	"scan_interval":         "scanner.interval",
	"scan_timeout":          "scanner.scan_timeout",
	"scan_record_cycles":    "scanner.record_cycles",
	"scan_record_lifecycle": "scanner.record_lifecycle",
	"scan_notify_results":   "scanner.notify_scan_results",

	// Model
	"model_path":                 "model.path",
	"model_breaker_threshold":    "model.breaker_failure_threshold",
	"model_breaker_timeout":      "model.breaker_timeout",
	"model_breaker_interval":     "model.breaker_interval",
	"model_breaker_max_requests": "model.breaker_max_requests",

	// Inventory
	"inventory_manifest": "inventory.manifest_path",

	// Event log
	"eventlog_queue_size":    "eventlog.queue_size",
	"eventlog_write_timeout": "eventlog.write_timeout",

	// Store
	"store_enabled":       "store.enabled",
	"store_path":          "store.path",
	"store_sync_writes":   "store.sync_writes",
	"store_compression":   "store.compression",
	"store_gc_interval":   "store.gc_interval",
	"store_gc_ratio":      "store.gc_ratio",
	"store_close_timeout": "store.close_timeout",

	// Notifications
	"notify_timeout":        "notify.timeout",
	"notify_log_enabled":    "notify.log.enabled",
	"webhook_enabled":       "notify.webhook.enabled",
	"webhook_url":           "notify.webhook.url",
	"webhook_rate_limit_ms": "notify.webhook.rate_limit_ms",
	"webhook_timeout":       "notify.webhook.timeout",
	"nats_enabled":          "notify.nats.enabled",
	"nats_url":              "notify.nats.url",
	"nats_subject":          "notify.nats.subject",
	"nats_jetstream":        "notify.nats.jetstream",
	"nats_stream_name":      "notify.nats.stream_name",
	"nats_embedded":         "notify.nats.embedded",
	"nats_server_host":      "notify.nats.server.host",
	"nats_server_port":      "notify.nats.server.port",
	"nats_store_dir":        "notify.nats.server.store_dir",

	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_request_timeout":  "server.request_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - SCAN_INTERVAL -> scanner.interval
//   - MODEL_PATH -> model.path
//   - WEBHOOK_URL -> notify.webhook.url
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	// Returning "" skips the variable.
	return ""
}
