// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package websocket

import (
	"sync"

	"github.com/tomtom215/appguard/internal/eventlog"
)

// LogSnapshot is the payload of a log_snapshot message: the whole log,
// most recent entry first.
type LogSnapshot struct {
	Revision uint64           `json:"revision"`
	Total    int              `json:"total"`
	Threats  int              `json:"threats"`
	Entries  []eventlog.Entry `json:"entries"`
}

// LogFeed mirrors the event log to connected clients. Every change is
// broadcast as a full snapshot, and a joining client receives the latest
// one. Clients use Revision to drop snapshots older than one they hold.
type LogFeed struct {
	hub *Hub
	log *eventlog.Log

	mu     sync.Mutex
	latest LogSnapshot
	sub    eventlog.Subscription
	active bool
}

// NewLogFeed binds log to hub. Call Start to begin mirroring.
func NewLogFeed(hub *Hub, log *eventlog.Log) *LogFeed {
	f := &LogFeed{hub: hub, log: log}
	hub.OnJoin(f.joinMessage)
	return f
}

// Start subscribes to the log. It is a no-op when already started.
func (f *LogFeed) Start() {
	f.mu.Lock()
	if f.active {
		f.mu.Unlock()
		return
	}
	f.active = true
	f.mu.Unlock()

	sub := f.log.Subscribe(f.onChange)

	f.mu.Lock()
	f.sub = sub
	f.mu.Unlock()
}

// Stop unsubscribes from the log.
func (f *LogFeed) Stop() {
	f.mu.Lock()
	if !f.active {
		f.mu.Unlock()
		return
	}
	f.active = false
	sub := f.sub
	f.mu.Unlock()

	f.log.Unsubscribe(sub)
}

// Latest returns the most recent snapshot.
func (f *LogFeed) Latest() LogSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

// onChange runs synchronously inside the log; it only queues a broadcast.
func (f *LogFeed) onChange(entries []eventlog.Entry) {
	threats := 0
	for i := range entries {
		if entries[i].IsThreat {
			threats++
		}
	}
	if entries == nil {
		entries = []eventlog.Entry{}
	}

	f.mu.Lock()
	f.latest = LogSnapshot{
		Revision: f.latest.Revision + 1,
		Total:    len(entries),
		Threats:  threats,
		Entries:  entries,
	}
	snapshot := f.latest
	f.mu.Unlock()

	f.hub.BroadcastJSON(MessageTypeLogSnapshot, snapshot)
}

func (f *LogFeed) joinMessage() Message {
	return Message{Type: MessageTypeLogSnapshot, Data: f.Latest()}
}
