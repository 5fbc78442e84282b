// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/appguard/internal/eventlog"
	"github.com/tomtom215/appguard/internal/features"
	"github.com/tomtom215/appguard/internal/inference"
)

const validModel = `{"format":"appguard-linear","version":1,"feature_schema":%d,"weights":[1.5],"bias":-2,"output":"probability"}`

func writeModel(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}

func TestLoadModel(t *testing.T) {
	t.Run("valid artifact", func(t *testing.T) {
		body := fmt.Sprintf(validModel, features.SchemaVersion)
		log := eventlog.New(nil, eventlog.DefaultConfig())

		client := loadModel(writeModel(t, body), inference.DefaultConfig(), log)
		if !client.Available() {
			t.Fatalf("client unavailable: %s", client.Info().LoadError)
		}
		if log.Len() != 0 {
			t.Errorf("log has %d entries, want 0", log.Len())
		}
	})

	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantMsg string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.json") },
			wantMsg: "read model",
		},
		{
			name:    "malformed artifact",
			path:    func(t *testing.T) string { return writeModel(t, "{not json") },
			wantMsg: "malformed",
		},
		{
			name:    "empty artifact",
			path:    func(t *testing.T) string { return writeModel(t, "  ") },
			wantMsg: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := eventlog.New(nil, eventlog.DefaultConfig())

			client := loadModel(tt.path(t), inference.DefaultConfig(), log)
			if client.Available() {
				t.Fatal("client should be degraded")
			}
			if !strings.Contains(client.Info().LoadError, tt.wantMsg) {
				t.Errorf("LoadError = %q, want it to contain %q", client.Info().LoadError, tt.wantMsg)
			}

			entries := log.All()
			if len(entries) != 1 {
				t.Fatalf("log has %d entries, want 1", len(entries))
			}
			e := entries[0]
			if e.Action != eventlog.ActionError || e.AppName != eventlog.SystemAppName || e.IsThreat {
				t.Errorf("unexpected entry %+v", e)
			}
			if !strings.HasPrefix(e.Description, "Model load failed: ") {
				t.Errorf("Description = %q", e.Description)
			}
		})
	}
}
