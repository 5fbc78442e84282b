// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/appguard/internal/eventlog"
	"github.com/tomtom215/appguard/internal/inference"
	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/models"
	"github.com/tomtom215/appguard/internal/scanner"
	ws "github.com/tomtom215/appguard/internal/websocket"
)

// Version is reported by the health endpoint.
var Version = "dev"

// EventLog is the part of the event log the API reads and clears.
type EventLog interface {
	All() []eventlog.Entry
	ThreatsOnly() []eventlog.Entry
	ThreatCount() int
	Len() int
	Clear()
}

// Scanner is the part of the scan coordinator the API drives.
type Scanner interface {
	Status() scanner.Status
	Trigger(ctx context.Context) error
}

// ModelInfo reports the state of the threat model.
type ModelInfo interface {
	Info() inference.Info
}

// Handler serves the HTTP API.
type Handler struct {
	log     EventLog
	scanner Scanner
	model   ModelInfo
	wsHub   *ws.Hub

	allowedOrigins []string
	startTime      time.Time
}

// NewHandler creates a handler. scanner, model and hub may be nil; the
// endpoints depending on them then answer 503.
func NewHandler(log EventLog, scanner Scanner, model ModelInfo, hub *ws.Hub) *Handler {
	return &Handler{
		log:       log,
		scanner:   scanner,
		model:     model,
		wsHub:     hub,
		startTime: time.Now(),
	}
}

// LogsRequest holds the query parameters of the logs endpoint.
type LogsRequest struct {
	Limit       int  `json:"limit" validate:"gte=0,lte=10000"`
	Offset      int  `json:"offset" validate:"gte=0"`
	ThreatsOnly bool `json:"threats_only" validate:"-"`
}

// ScannerStatusResponse combines coordinator and model state.
type ScannerStatusResponse struct {
	Scanner scanner.Status `json:"scanner"`
	Model   inference.Info `json:"model"`
}

// ScanAccepted is returned when a manual scan starts.
type ScanAccepted struct {
	State         scanner.State `json:"state"`
	CorrelationID string        `json:"correlation_id,omitempty"`
}

// Logs returns log entries, most recent first.
//
// Query parameters: limit (0 = all), offset, threats (bool).
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	req, apiErr := parseLogsRequest(r)
	if apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr = validateRequest(&req); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return
	}

	var entries []eventlog.Entry
	if req.ThreatsOnly {
		entries = h.log.ThreatsOnly()
	} else {
		entries = h.log.All()
	}
	entries = paginate(entries, req.Offset, req.Limit)

	respondSuccess(w, http.StatusOK, entries, len(entries))
}

func paginate(entries []eventlog.Entry, offset, limit int) []eventlog.Entry {
	if offset >= len(entries) {
		return []eventlog.Entry{}
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

// Threats returns the threat entries, most recent first.
func (h *Handler) Threats(w http.ResponseWriter, _ *http.Request) {
	entries := h.log.ThreatsOnly()
	if entries == nil {
		entries = []eventlog.Entry{}
	}
	respondSuccess(w, http.StatusOK, entries, len(entries))
}

// LogStats returns the entry and threat counts.
func (h *Handler) LogStats(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, http.StatusOK, models.LogStats{
		Total:   h.log.Len(),
		Threats: h.log.ThreatCount(),
	}, 0)
}

// ClearLogs removes every entry.
func (h *Handler) ClearLogs(w http.ResponseWriter, r *http.Request) {
	removed := h.log.Len()
	h.log.Clear()
	logging.Ctx(r.Context()).Info().Int("removed", removed).Msg("Event log cleared via API")
	respondSuccess(w, http.StatusOK, map[string]int{"removed": removed}, 0)
}

// TriggerScan starts a scan cycle in the background.
func (h *Handler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		respondError(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "Scanner not available", nil)
		return
	}

	ctx := r.Context()
	if err := h.scanner.Trigger(ctx); err != nil {
		if errors.Is(err, scanner.ErrScanInProgress) {
			respondError(w, http.StatusConflict, CodeScanInProgress, "A scan is already running", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, CodeInternal, "Failed to start scan", err)
		return
	}

	respondSuccess(w, http.StatusAccepted, ScanAccepted{
		State:         scanner.StateScanning,
		CorrelationID: logging.CorrelationIDFromContext(ctx),
	}, 0)
}

// ScannerStatus reports the coordinator and model state.
func (h *Handler) ScannerStatus(w http.ResponseWriter, _ *http.Request) {
	if h.scanner == nil {
		respondError(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "Scanner not available", nil)
		return
	}

	resp := ScannerStatusResponse{Scanner: h.scanner.Status()}
	if h.model != nil {
		resp.Model = h.model.Info()
	}
	respondSuccess(w, http.StatusOK, resp, 0)
}
