// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/appguard/internal/logging"
)

// LogNotifier writes notifications to the structured log. It stands in for
// the device notification tray when running headless.
type LogNotifier struct {
	logger  zerolog.Logger
	enabled bool
}

// NewLogNotifier creates a log notifier.
func NewLogNotifier(enabled bool) *LogNotifier {
	return &LogNotifier{
		logger:  logging.WithComponent("notify"),
		enabled: enabled,
	}
}

// Name returns the notifier name.
func (n *LogNotifier) Name() string {
	return "log"
}

// Enabled returns whether this notifier is enabled.
func (n *LogNotifier) Enabled() bool {
	return n.enabled
}

// Send logs the notification. High priority alerts are logged at WARN.
func (n *LogNotifier) Send(_ context.Context, note *Notification) error {
	event := n.logger.Info()
	if note.Priority == PriorityHigh {
		event = n.logger.Warn()
	}
	if note.Score != nil {
		event = event.Float32("score", *note.Score)
	}
	event.
		Str("notification_id", note.ID).
		Str("kind", string(note.Kind)).
		Str("app", note.AppName).
		Str("title", note.Title).
		Msg(note.Message)
	return nil
}
