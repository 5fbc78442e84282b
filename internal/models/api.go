// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package models

import "time"

// APIResponse is the envelope used by every HTTP endpoint.
//
//	{
//	  "status": "success",
//	  "data": {"total": 12, "threats": 1},
//	  "metadata": {"timestamp": "2026-10-15T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata describes the response itself.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count,omitempty"`
}

// APIError is the error body of a failed request.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// LogStats summarises the event log.
type LogStats struct {
	Total   int `json:"total"`
	Threats int `json:"threats"`
}

// HealthStatus is returned by the health endpoint.
type HealthStatus struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	ModelLoaded   bool    `json:"model_loaded"`
	ScannerActive bool    `json:"scanner_active"`
	Dashboards    int     `json:"dashboards"`
	Uptime        float64 `json:"uptime_seconds"`
}
