// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package scanner

import "time"

// State is the coordinator's scan state.
type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
)

// Summary describes one scan cycle.
type Summary struct {
	Enumerated int           `json:"enumerated"`
	Relevant   int           `json:"relevant"`
	Scanned    int           `json:"scanned"`
	Skipped    int           `json:"already_scanned"`
	Threats    int           `json:"threats"`
	Failures   int           `json:"failures"`
	Duration   time.Duration `json:"duration_ns"`
	Err        error         `json:"-"`
}

// Status is a point-in-time view of the coordinator.
type Status struct {
	State        State         `json:"state"`
	Running      bool          `json:"running"`
	Interval     time.Duration `json:"interval_ns"`
	TicksRun     int64         `json:"ticks_run"`
	TicksSkipped int64         `json:"ticks_skipped"`
	AppsScanned  int64         `json:"apps_scanned"`
	Threats      int64         `json:"threats_found"`
	ScanFailures int64         `json:"scan_failures"`
	DedupSize    int           `json:"dedup_size"`
	LastScanAt   *time.Time    `json:"last_scan_at,omitempty"`
	LastDuration time.Duration `json:"last_duration_ns"`
	LastSummary  *Summary      `json:"last_summary,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
}
