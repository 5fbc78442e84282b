// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

// Package notify delivers user-facing alerts about scan outcomes to
// pluggable channels.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a notification.
type Kind string

const (
	// KindThreatDetected is raised once per application classified as a threat.
	KindThreatDetected Kind = "threat_detected"

	// KindScanResult reports the verdict for a single scanned application.
	KindScanResult Kind = "scan_result"
)

// Priority mirrors the two alert channels of the device UI.
type Priority string

const (
	PriorityDefault Priority = "default"
	PriorityHigh    Priority = "high"
)

// Notification is one alert.
type Notification struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Priority    Priority  `json:"priority"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Detail      string    `json:"detail,omitempty"`
	AppName     string    `json:"app_name"`
	PackageName string    `json:"package_name,omitempty"`
	IsThreat    bool      `json:"is_threat"`
	Score       *float32  `json:"score,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Notifier sends notifications to an external channel.
type Notifier interface {
	// Send delivers a notification.
	Send(ctx context.Context, n *Notification) error

	// Name returns the notifier name (e.g., "log", "webhook").
	Name() string

	// Enabled returns whether this notifier is enabled.
	Enabled() bool
}

// ThreatNotification builds the alert raised when appName is classified
// as a threat.
func ThreatNotification(appName string) *Notification {
	return &Notification{
		ID:        uuid.New().String(),
		Kind:      KindThreatDetected,
		Priority:  PriorityHigh,
		Title:     "Suspicious application detected",
		Message:   fmt.Sprintf("%s was found dangerous in a background scan", appName),
		AppName:   appName,
		IsThreat:  true,
		Timestamp: time.Now().UTC(),
	}
}

// ScanResultNotification builds the per-application verdict alert.
func ScanResultNotification(appName string, isThreat bool, score float32) *Notification {
	n := &Notification{
		ID:        uuid.New().String(),
		Kind:      KindScanResult,
		AppName:   appName,
		IsThreat:  isThreat,
		Score:     &score,
		Timestamp: time.Now().UTC(),
	}
	if isThreat {
		n.Priority = PriorityHigh
		n.Title = "Dangerous application detected"
		n.Message = fmt.Sprintf("%s may be dangerous (score: %.2f)", appName, score)
		n.Detail = fmt.Sprintf("%s was flagged as dangerous by the security scan. "+
			"Removing it is recommended. Security score: %.2f", appName, score)
	} else {
		n.Priority = PriorityDefault
		n.Title = "Security scan complete"
		n.Message = fmt.Sprintf("%s is safe (score: %.2f)", appName, score)
	}
	return n
}
