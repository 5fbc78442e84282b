// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/appguard/internal/logging"
	ws "github.com/tomtom215/appguard/internal/websocket"
)

const (
	// registerTimeout bounds the wait for a stopped or restarting hub.
	registerTimeout = 5 * time.Second

	handshakeTimeout = 10 * time.Second
)

// SetAllowedOrigins sets the browser origins accepted for WebSocket
// upgrades. "*" accepts any origin.
func (h *Handler) SetAllowedOrigins(origins []string) {
	h.allowedOrigins = origins
}

// originAllowed accepts requests without an Origin header, which come from
// local tools such as a device shell rather than a browser.
func (h *Handler) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin) {
		return true
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket upgrade rejected for origin")
	return false
}

// WebSocket upgrades a dashboard connection and hands it to the hub. The
// dashboard first receives a log_snapshot, then every change.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "WebSocket service unavailable", nil)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		HandshakeTimeout: handshakeTimeout,
		CheckOrigin:      h.originAllowed,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered with an HTTP error.
		logging.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	timer := time.NewTimer(registerTimeout)
	defer timer.Stop()

	select {
	case h.wsHub.Register <- client:
		client.Start()
	case <-timer.C:
		logging.Warn().Uint64("client_id", client.ID()).Msg("WebSocket hub not accepting dashboards")
		closeTryAgain(conn)
	}
}

// closeTryAgain tells the dashboard to reconnect later and drops conn.
func closeTryAgain(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "hub restarting")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = conn.Close()
}
