// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/appguard/internal/logging"
)

// Validate checks that the configuration is usable. The first failing
// section is returned as a *ValidationError.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateScanner,
		c.validateModel,
		c.validateInventory,
		c.validateEventLog,
		c.validateStore,
		c.validateNotify,
		c.validateServer,
		c.validateLogging,
		c.validateSupervisor,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

const (
	minScanInterval = time.Second
	minScanTimeout  = time.Second
)

func (c *Config) validateScanner() error {
	if c.Scanner.Interval < minScanInterval {
		return invalid("scanner.interval", "must be at least %v", minScanInterval)
	}
	if c.Scanner.ScanTimeout < minScanTimeout {
		return invalid("scanner.scan_timeout", "must be at least %v", minScanTimeout)
	}
	return nil
}

// validateModel does not open the model file. A missing file starts the
// service degraded.
func (c *Config) validateModel() error {
	if strings.TrimSpace(c.Model.Path) == "" {
		return invalid("model.path", "is required")
	}
	if c.Model.BreakerFailureThreshold == 0 {
		return invalid("model.breaker_failure_threshold", "must be at least 1")
	}
	if c.Model.BreakerTimeout <= 0 {
		return invalid("model.breaker_timeout", "must be positive")
	}
	if c.Model.BreakerInterval < 0 {
		return invalid("model.breaker_interval", "must not be negative")
	}
	return nil
}

func (c *Config) validateInventory() error {
	if strings.TrimSpace(c.Inventory.ManifestPath) == "" {
		return invalid("inventory.manifest_path", "is required")
	}
	return nil
}

func (c *Config) validateEventLog() error {
	if c.EventLog.QueueSize < 1 {
		return invalid("eventlog.queue_size", "must be at least 1")
	}
	if c.EventLog.WriteTimeout <= 0 {
		return invalid("eventlog.write_timeout", "must be positive")
	}
	return nil
}

// validateStore delegates to the store's own checks.
func (c *Config) validateStore() error {
	if err := c.StoreSettings().Validate(); err != nil {
		return &ValidationError{Key: "store", Message: "invalid store configuration", Err: err}
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.Timeout <= 0 {
		return invalid("notify.timeout", "must be positive")
	}

	if c.Notify.Webhook.Enabled {
		if err := validateHTTPURL(c.Notify.Webhook.WebhookURL); err != nil {
			return &ValidationError{Key: "notify.webhook.url", Message: "invalid webhook URL", Err: err}
		}
		if c.Notify.Webhook.RateLimitMs < 0 {
			return invalid("notify.webhook.rate_limit_ms", "must not be negative")
		}
	}

	nc := c.Notify.NATS
	if !nc.Enabled {
		return nil
	}
	if strings.TrimSpace(nc.Subject) == "" {
		return invalid("notify.nats.subject", "is required when NATS notifications are enabled")
	}
	if nc.JetStream && strings.TrimSpace(nc.StreamName) == "" {
		return invalid("notify.nats.stream_name", "is required when JetStream is enabled")
	}
	if nc.Embedded {
		if nc.Server.Port < 0 || nc.Server.Port > 65535 {
			return invalid("notify.nats.server.port", "must be between 0 and 65535")
		}
		return nil
	}
	if err := validateNATSURL(nc.URL); err != nil {
		return &ValidationError{Key: "notify.nats.url", Message: "invalid NATS URL", Err: err}
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port", "must be between 1 and 65535")
	}
	if c.Server.RequestTimeout <= 0 {
		return invalid("server.request_timeout", "must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return invalid("server.shutdown_timeout", "must be positive")
	}
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitReqs < minRateLimitRequests || c.Server.RateLimitReqs > maxRateLimitRequests {
		return invalid("server.rate_limit_reqs", "must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Server.RateLimitWindow < minRateLimitWindow || c.Server.RateLimitWindow > maxRateLimitWindow {
		return invalid("server.rate_limit_window", "must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// HasWildcardCORS reports whether any origin may call the API. Logged as
// a warning at startup.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return invalid("logging.level", "must be a zerolog level such as debug, info, warn or error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return invalid("logging.format", "must be one of: json, console")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	if c.Supervisor.FailureThreshold <= 0 {
		return invalid("supervisor.failure_threshold", "must be positive")
	}
	if c.Supervisor.FailureDecay <= 0 {
		return invalid("supervisor.failure_decay", "must be positive")
	}
	if c.Supervisor.FailureBackoff <= 0 {
		return invalid("supervisor.failure_backoff", "must be positive")
	}
	if c.Supervisor.ShutdownTimeout <= 0 {
		return invalid("supervisor.shutdown_timeout", "must be positive")
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Key: "scheme", Message: "must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Key: "host", Message: "is required"}
	}
	return nil
}

func validateNATSURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "nats" && u.Scheme != "tls" {
		return &ValidationError{Key: "scheme", Message: "must be nats or tls"}
	}
	if u.Host == "" {
		return &ValidationError{Key: "host", Message: "is required"}
	}
	return nil
}
