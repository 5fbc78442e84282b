// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Scanner.Interval != 30*time.Second {
		t.Errorf("Scanner.Interval = %v, want 30s", cfg.Scanner.Interval)
	}
	if cfg.Scanner.ScanTimeout != 10*time.Minute {
		t.Errorf("Scanner.ScanTimeout = %v, want 10m", cfg.Scanner.ScanTimeout)
	}
	if cfg.Scanner.RecordCycles {
		t.Error("Scanner.RecordCycles should be false by default")
	}
	if !cfg.Scanner.RecordLifecycle {
		t.Error("Scanner.RecordLifecycle should be true by default")
	}
	if cfg.Model.BreakerFailureThreshold != 5 {
		t.Errorf("Model.BreakerFailureThreshold = %d, want 5", cfg.Model.BreakerFailureThreshold)
	}
	if !cfg.Store.Enabled {
		t.Error("Store.Enabled should be true by default")
	}
	if cfg.Notify.Webhook.Enabled || cfg.Notify.NATS.Enabled {
		t.Error("external notifiers should be disabled by default")
	}
	if !cfg.Notify.Log.Enabled {
		t.Error("Notify.Log.Enabled should be true by default")
	}
	if cfg.Server.Addr() != "127.0.0.1:8470" {
		t.Errorf("Server.Addr() = %q, want 127.0.0.1:8470", cfg.Server.Addr())
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Scanner.Interval != 30*time.Second {
		t.Errorf("Scanner.Interval = %v, want 30s", cfg.Scanner.Interval)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("SCAN_INTERVAL", "2m")
	t.Setenv("SCAN_RECORD_CYCLES", "true")
	t.Setenv("MODEL_PATH", "/tmp/model.json")
	t.Setenv("MODEL_BREAKER_THRESHOLD", "3")
	t.Setenv("STORE_ENABLED", "false")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("CORS_ORIGINS", "http://a.local, http://b.local")
	t.Setenv("WEBHOOK_ENABLED", "true")
	t.Setenv("WEBHOOK_URL", "https://hooks.example.com/x")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scanner.Interval != 2*time.Minute {
		t.Errorf("Scanner.Interval = %v, want 2m", cfg.Scanner.Interval)
	}
	if !cfg.Scanner.RecordCycles {
		t.Error("Scanner.RecordCycles = false, want true")
	}
	if cfg.Model.Path != "/tmp/model.json" {
		t.Errorf("Model.Path = %q", cfg.Model.Path)
	}
	if cfg.Model.BreakerFailureThreshold != 3 {
		t.Errorf("Model.BreakerFailureThreshold = %d, want 3", cfg.Model.BreakerFailureThreshold)
	}
	if cfg.Store.Enabled {
		t.Error("Store.Enabled = true, want false")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.local" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if !cfg.Notify.Webhook.Enabled || cfg.Notify.Webhook.WebhookURL != "https://hooks.example.com/x" {
		t.Errorf("Notify.Webhook = %+v", cfg.Notify.Webhook)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "appguard.yaml")
	content := `
scanner:
  interval: 45s
  notify_scan_results: true
notify:
  webhook:
    enabled: true
    url: https://hooks.example.com/appguard
    headers:
      X-Token: secret
  nats:
    enabled: true
    embedded: true
    subject: device.alerts
server:
  port: 8600
  cors_origins:
    - http://dash.local
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	// Environment beats the file.
	t.Setenv("HTTP_PORT", "8601")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scanner.Interval != 45*time.Second {
		t.Errorf("Scanner.Interval = %v, want 45s", cfg.Scanner.Interval)
	}
	if !cfg.Scanner.NotifyScanResults {
		t.Error("Scanner.NotifyScanResults = false, want true")
	}
	// Untouched keys keep their defaults.
	if cfg.Scanner.ScanTimeout != 10*time.Minute {
		t.Errorf("Scanner.ScanTimeout = %v, want 10m", cfg.Scanner.ScanTimeout)
	}
	if cfg.Notify.Webhook.Headers["X-Token"] != "secret" {
		t.Errorf("Notify.Webhook.Headers = %v", cfg.Notify.Webhook.Headers)
	}
	if !cfg.Notify.NATS.Embedded || cfg.Notify.NATS.Subject != "device.alerts" {
		t.Errorf("Notify.NATS = %+v", cfg.Notify.NATS)
	}
	if cfg.Notify.NATS.Server.Host != "127.0.0.1" {
		t.Errorf("Notify.NATS.Server.Host = %q, want default", cfg.Notify.NATS.Server.Host)
	}
	if cfg.Server.Port != 8601 {
		t.Errorf("Server.Port = %d, want 8601", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://dash.local" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("SCAN_INTERVAL", "100ms")

	_, err := Load()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Load() error = %v, want *ValidationError", err)
	}
	if verr.Key != "scanner.interval" {
		t.Errorf("Key = %q, want scanner.interval", verr.Key)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"SCAN_INTERVAL", "scanner.interval"},
		{"MODEL_PATH", "model.path"},
		{"NATS_STORE_DIR", "notify.nats.server.store_dir"},
		{"HTTP_PORT", "server.port"},
		{"DISABLE_RATE_LIMIT", "server.rate_limit_disabled"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
