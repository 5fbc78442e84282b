// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package services

import (
	"context"
	"fmt"
)

// ContextHub is satisfied by *websocket.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService runs the live log hub. The hub closes every dashboard
// when it stops; after a restart dashboards reconnect and get a fresh
// log_snapshot on join.
type WebSocketHubService struct {
	hub ContextHub
}

// NewWebSocketHubService supervises hub.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{hub: hub}
}

// Serve implements suture.Service.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	err := w.hub.RunWithContext(ctx)
	if err == nil || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("websocket hub stopped: %w", err)
}

func (w *WebSocketHubService) String() string {
	return "websocket-hub"
}
