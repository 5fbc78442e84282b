// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package websocket

import (
	"context"

	"github.com/tomtom215/appguard/internal/notify"
)

var _ notify.Notifier = (*AlertNotifier)(nil)

// AlertNotifier pushes notifications to connected clients as threat_alert
// or scan_result messages.
type AlertNotifier struct {
	hub *Hub
}

// NewAlertNotifier creates a notifier broadcasting through hub.
func NewAlertNotifier(hub *Hub) *AlertNotifier {
	return &AlertNotifier{hub: hub}
}

// Name returns the notifier name.
func (n *AlertNotifier) Name() string {
	return "websocket"
}

// Enabled reports whether a hub is attached.
func (n *AlertNotifier) Enabled() bool {
	return n.hub != nil
}

// Send queues the notification for broadcast. It never blocks.
func (n *AlertNotifier) Send(_ context.Context, note *notify.Notification) error {
	if !n.Enabled() {
		return nil
	}
	msgType := MessageTypeScanResult
	if note.Kind == notify.KindThreatDetected {
		msgType = MessageTypeThreatAlert
	}
	n.hub.BroadcastJSON(msgType, note)
	return nil
}
