// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/appguard/internal/eventlog"
	"github.com/tomtom215/appguard/internal/inference"
	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/notify"
	"github.com/tomtom215/appguard/internal/scanner"
	"github.com/tomtom215/appguard/internal/store"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values from defaultConfig
//  2. Config File: optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: the mapped variables in envMappings
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	Scanner    ScannerConfig    `koanf:"scanner"`
	Model      ModelConfig      `koanf:"model"`
	Inventory  InventoryConfig  `koanf:"inventory"`
	EventLog   EventLogConfig   `koanf:"eventlog"`
	Store      StoreConfig      `koanf:"store"`
	Notify     NotifyConfig     `koanf:"notify"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ScannerConfig controls the background scan loop.
type ScannerConfig struct {
	Interval          time.Duration `koanf:"interval"`
	ScanTimeout       time.Duration `koanf:"scan_timeout"`
	RecordCycles      bool          `koanf:"record_cycles"`
	RecordLifecycle   bool          `koanf:"record_lifecycle"`
	NotifyScanResults bool          `koanf:"notify_scan_results"`
}

// ModelConfig locates the model artifact and tunes the inference breaker.
type ModelConfig struct {
	// Path is read once at startup. A missing or unreadable file starts
	// the service in degraded mode.
	Path string `koanf:"path"`

	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
	BreakerMaxRequests      uint32        `koanf:"breaker_max_requests"`
}

// InventoryConfig locates the installed-application manifest.
type InventoryConfig struct {
	ManifestPath string `koanf:"manifest_path"`
}

// EventLogConfig tunes the asynchronous persister of the event log.
type EventLogConfig struct {
	QueueSize    int           `koanf:"queue_size"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// StoreConfig configures the BadgerDB mirror of the event log.
type StoreConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Path             string        `koanf:"path"`
	SyncWrites       bool          `koanf:"sync_writes"`
	MemTableSize     int64         `koanf:"mem_table_size"`
	ValueLogFileSize int64         `koanf:"value_log_file_size"`
	NumCompactors    int           `koanf:"num_compactors"`
	Compression      bool          `koanf:"compression"`
	GCInterval       time.Duration `koanf:"gc_interval"`
	GCRatio          float64       `koanf:"gc_ratio"`
	CloseTimeout     time.Duration `koanf:"close_timeout"`
}

// NotifyConfig configures the notification channels.
type NotifyConfig struct {
	// Timeout bounds a single delivery.
	Timeout time.Duration `koanf:"timeout"`

	Log     LogNotifyConfig      `koanf:"log"`
	Webhook notify.WebhookConfig `koanf:"webhook"`
	NATS    notify.NATSConfig    `koanf:"nats"`
}

// LogNotifyConfig enables notifications written to the service log.
type LogNotifyConfig struct {
	Enabled bool `koanf:"enabled"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes restart behaviour of the service tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ScannerSettings converts the section to a scanner.Config.
func (c *Config) ScannerSettings() scanner.Config {
	return scanner.Config{
		Interval:          c.Scanner.Interval,
		ScanTimeout:       c.Scanner.ScanTimeout,
		RecordCycles:      c.Scanner.RecordCycles,
		RecordLifecycle:   c.Scanner.RecordLifecycle,
		NotifyScanResults: c.Scanner.NotifyScanResults,
	}
}

// InferenceSettings converts the model section to an inference.Config.
func (c *Config) InferenceSettings() inference.Config {
	return inference.Config{
		BreakerFailureThreshold: c.Model.BreakerFailureThreshold,
		BreakerTimeout:          c.Model.BreakerTimeout,
		BreakerInterval:         c.Model.BreakerInterval,
		BreakerMaxRequests:      c.Model.BreakerMaxRequests,
	}
}

// EventLogSettings converts the section to an eventlog.Config.
func (c *Config) EventLogSettings() eventlog.Config {
	return eventlog.Config{
		QueueSize:    c.EventLog.QueueSize,
		WriteTimeout: c.EventLog.WriteTimeout,
	}
}

// StoreSettings converts the section to a store.Config.
func (c *Config) StoreSettings() *store.Config {
	return &store.Config{
		Enabled:          c.Store.Enabled,
		Path:             c.Store.Path,
		SyncWrites:       c.Store.SyncWrites,
		MemTableSize:     c.Store.MemTableSize,
		ValueLogFileSize: c.Store.ValueLogFileSize,
		NumCompactors:    c.Store.NumCompactors,
		Compression:      c.Store.Compression,
		GCInterval:       c.Store.GCInterval,
		GCRatio:          c.Store.GCRatio,
		CloseTimeout:     c.Store.CloseTimeout,
	}
}

// LoggingSettings converts the section to a logging.Config.
func (c *Config) LoggingSettings() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}

// ValidationError reports an invalid configuration value. Key is the
// koanf path of the offending setting.
type ValidationError struct {
	Key     string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(key, format string, args ...interface{}) error {
	return &ValidationError{Key: key, Message: fmt.Sprintf(format, args...)}
}
