// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package eventlog

import (
	"context"
	"fmt"
	"time"
)

// ActionType tags what a log entry records.
type ActionType string

// Action types.
const (
	ActionScanStarted      ActionType = "SCAN_STARTED"
	ActionScanCompleted    ActionType = "SCAN_COMPLETED"
	ActionThreatDetected   ActionType = "THREAT_DETECTED"
	ActionAppBlocked       ActionType = "APP_BLOCKED"
	ActionNotificationSent ActionType = "NOTIFICATION_SENT"
	ActionNetworkBlocked   ActionType = "NETWORK_BLOCKED"
	ActionBackgroundScan   ActionType = "BACKGROUND_SCAN"
	ActionServiceStarted   ActionType = "SERVICE_STARTED"
	ActionServiceStopped   ActionType = "SERVICE_STOPPED"
	ActionError            ActionType = "ERROR"
)

var actionTypes = map[ActionType]struct{}{
	ActionScanStarted:      {},
	ActionScanCompleted:    {},
	ActionThreatDetected:   {},
	ActionAppBlocked:       {},
	ActionNotificationSent: {},
	ActionNetworkBlocked:   {},
	ActionBackgroundScan:   {},
	ActionServiceStarted:   {},
	ActionServiceStopped:   {},
	ActionError:            {},
}

// Valid reports whether a is a known action type.
func (a ActionType) Valid() bool {
	_, ok := actionTypes[a]
	return ok
}

// ParseActionType converts s to an ActionType.
func ParseActionType(s string) (ActionType, error) {
	a := ActionType(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown action type %q", s)
	}
	return a, nil
}

// SystemAppName is the app name used for entries about the service itself.
const SystemAppName = "System"

// Entry is one immutable log record.
type Entry struct {
	ID          int64      `json:"id"`
	AppName     string     `json:"app_name"`
	PackageName string     `json:"package_name"`
	IsThreat    bool       `json:"is_threat"`
	ThreatScore float32    `json:"threat_score"`
	Timestamp   time.Time  `json:"timestamp"`
	Action      ActionType `json:"action_type"`
	Description string     `json:"description"`
}

// Record is the caller-supplied part of an entry. The log assigns the id
// and, when Timestamp is zero, the capture time.
type Record struct {
	AppName     string
	PackageName string
	IsThreat    bool
	ThreatScore float32
	Action      ActionType
	Description string
	Timestamp   time.Time
}

// Store is the durable mirror of the log.
type Store interface {
	Insert(ctx context.Context, entry Entry) error
	DeleteAll(ctx context.Context) error
	All(ctx context.Context) ([]Entry, error)
}

// Listener receives the full log, most recent first, after every change.
// Listeners run synchronously on the appending goroutine and must not call
// Append, Clear, Subscribe or Unsubscribe.
type Listener func(entries []Entry)

// Subscription identifies a registered listener.
type Subscription uint64

// Config controls the asynchronous persister.
type Config struct {
	// QueueSize bounds writes waiting for the store. Writes beyond it are
	// dropped and logged. Default: 256
	QueueSize int

	// WriteTimeout bounds a single store operation. Default: 5s
	WriteTimeout time.Duration
}

// DefaultConfig returns the default log configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize:    256,
		WriteTimeout: 5 * time.Second,
	}
}
