// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package store

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"empty path", func(c *Config) { c.Path = "" }, "Path"},
		{"small memtable", func(c *Config) { c.MemTableSize = 1024 }, "MemTableSize"},
		{"small vlog", func(c *Config) { c.ValueLogFileSize = 1024 }, "ValueLogFileSize"},
		{"one compactor", func(c *Config) { c.NumCompactors = 1 }, "NumCompactors"},
		{"fast gc", func(c *Config) { c.GCInterval = time.Second }, "GCInterval"},
		{"zero ratio", func(c *Config) { c.GCRatio = 0 }, "GCRatio"},
		{"ratio one", func(c *Config) { c.GCRatio = 1 }, "GCRatio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestConfigValidate_DisabledSkipsChecks(t *testing.T) {
	t.Parallel()

	cfg := Config{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on disabled config error = %v", err)
	}
}
