// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

// Package store mirrors the event log into BadgerDB so entries survive restarts.
package store

import "time"

const mib = 1 << 20

// Config is the BadgerDB tuning for the event log mirror. The defaults are
// sized for one device holding a few thousand verdicts.
type Config struct {
	// Enabled turns persistence on. Disabled means a memory-only log.
	Enabled bool

	// Path is the BadgerDB directory.
	Path string

	// SyncWrites fsyncs every entry before Insert returns.
	SyncWrites bool

	MemTableSize     int64
	ValueLogFileSize int64

	// NumCompactors must be at least 2; Badger refuses fewer.
	NumCompactors int

	// Compression stores entries Snappy-compressed.
	Compression bool

	// GCInterval and GCRatio drive value log garbage collection.
	GCInterval time.Duration
	GCRatio    float64

	// CloseTimeout bounds Close.
	CloseTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		Path:             "/data/appguard/eventlog",
		SyncWrites:       true,
		MemTableSize:     16 * mib,
		ValueLogFileSize: 64 * mib,
		NumCompactors:    2,
		Compression:      true,
		GCInterval:       time.Hour,
		GCRatio:          0.5,
		CloseTimeout:     30 * time.Second,
	}
}

// withDefaults fills zero tuning fields. Path and the booleans are kept.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MemTableSize == 0 {
		c.MemTableSize = d.MemTableSize
	}
	if c.ValueLogFileSize == 0 {
		c.ValueLogFileSize = 16 * mib
	}
	if c.NumCompactors < 2 {
		c.NumCompactors = d.NumCompactors
	}
	if c.GCInterval == 0 {
		c.GCInterval = d.GCInterval
	}
	if c.GCRatio == 0 {
		c.GCRatio = d.GCRatio
	}
	if c.CloseTimeout == 0 {
		c.CloseTimeout = d.CloseTimeout
	}
	return c
}

// Validate reports the first field Open would reject. A disabled config
// is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	rules := []struct {
		ok      bool
		field   string
		message string
	}{
		{c.Path != "", "Path", "store path is required"},
		{c.MemTableSize >= mib, "MemTableSize", "must be at least 1MB"},
		{c.ValueLogFileSize >= mib, "ValueLogFileSize", "must be at least 1MB"},
		{c.NumCompactors >= 2, "NumCompactors", "must be at least 2 (BadgerDB requirement)"},
		{c.GCInterval >= time.Minute, "GCInterval", "must be at least 1 minute"},
		{c.GCRatio > 0 && c.GCRatio < 1, "GCRatio", "must be between 0 and 1 exclusive"},
	}
	for _, r := range rules {
		if !r.ok {
			return &ConfigError{Field: r.field, Message: r.message}
		}
	}
	return nil
}

// ConfigError names the rejected field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "store config error: " + e.Field + ": " + e.Message
}
