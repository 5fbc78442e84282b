// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/appguard/internal/models"
)

// Health reports overall status. A missing model degrades the service but
// does not fail the check: scans still run and are scored as failures.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	modelLoaded := h.model != nil && h.model.Info().Loaded
	scannerActive := h.scanner != nil && h.scanner.Status().Running

	status := "healthy"
	if !modelLoaded || !scannerActive {
		status = "degraded"
	}
	dashboards := 0
	if h.wsHub != nil {
		dashboards = h.wsHub.GetClientCount()
	}

	respondSuccess(w, http.StatusOK, models.HealthStatus{
		Status:        status,
		Version:       Version,
		ModelLoaded:   modelLoaded,
		ScannerActive: scannerActive,
		Dashboards:    dashboards,
		Uptime:        time.Since(h.startTime).Seconds(),
	}, 0)
}

// HealthLive returns 200 while the process is alive.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, 0)
}

// HealthReady returns 200 once the scanner is running, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	if h.scanner == nil || !h.scanner.Status().Running {
		respondError(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "Scanner not running", nil)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]bool{"ready": true}, 0)
}
