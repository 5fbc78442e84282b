// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

// Package eventlog keeps the ordered record of scan activity and fans it
// out to listeners and a durable store.
package eventlog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/metrics"
)

// Log is the append-only, observable record of scan activity.
//
// Two locks are involved. orderMu serialises every mutation together with
// its listener notification, so listeners observe snapshots in the order
// the mutations happened. mu guards the data and is never held while a
// listener runs, which lets listeners read the log.
type Log struct {
	orderMu sync.Mutex

	mu        sync.RWMutex
	entries   []Entry // most recent first
	threats   int
	listeners map[Subscription]Listener
	nextToken Subscription

	persister *persister
}

// New creates an empty log. A nil store keeps the log in memory only.
func New(store Store, cfg Config) *Log {
	l := &Log{
		listeners: make(map[Subscription]Listener),
	}
	if store != nil {
		l.persister = newPersister(store, cfg)
	}
	return l
}

// Append records rec and returns the stored entry.
func (l *Log) Append(rec Record) Entry {
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	l.orderMu.Lock()
	defer l.orderMu.Unlock()

	l.mu.Lock()
	var id int64 = 1
	if len(l.entries) > 0 {
		// entries[0] always holds the highest id.
		id = l.entries[0].ID + 1
	}
	entry := Entry{
		ID:          id,
		AppName:     rec.AppName,
		PackageName: rec.PackageName,
		IsThreat:    rec.IsThreat,
		ThreatScore: rec.ThreatScore,
		Timestamp:   ts.UTC().Truncate(time.Millisecond),
		Action:      rec.Action,
		Description: rec.Description,
	}
	l.entries = append([]Entry{entry}, l.entries...)
	if entry.IsThreat {
		l.threats++
	}
	total, threats := len(l.entries), l.threats
	l.mu.Unlock()

	logEntry(entry)
	metrics.RecordLogAppend(string(entry.Action), total, threats)

	l.notify()
	if l.persister != nil {
		l.persister.insert(entry)
	}
	return entry
}

func logEntry(e Entry) {
	event := logging.Info()
	if e.IsThreat {
		event = logging.Warn()
	}
	event.
		Int64("id", e.ID).
		Str("action", string(e.Action)).
		Str("app", e.AppName).
		Str("package", e.PackageName).
		Bool("threat", e.IsThreat).
		Float32("score", e.ThreatScore).
		Msg(e.Description)
}

// All returns a copy of every entry, most recent first.
func (l *Log) All() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneEntries(l.entries)
}

// ThreatsOnly returns a copy of the threat entries, most recent first.
func (l *Log) ThreatsOnly() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, 0, l.threats)
	for i := range l.entries {
		if l.entries[i].IsThreat {
			out = append(out, l.entries[i])
		}
	}
	return out
}

// ThreatCount returns the number of threat entries.
func (l *Log) ThreatCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.threats
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear removes every entry, in memory and in the store, and notifies
// listeners with an empty log.
func (l *Log) Clear() {
	l.orderMu.Lock()
	defer l.orderMu.Unlock()

	l.mu.Lock()
	removed := len(l.entries)
	l.entries = nil
	l.threats = 0
	l.mu.Unlock()

	metrics.UpdateLogSize(0, 0)
	logging.Info().Int("removed", removed).Msg("Event log cleared")

	l.notify()
	if l.persister != nil {
		l.persister.deleteAll()
	}
}

// Subscribe registers fn and immediately calls it with the current log.
func (l *Log) Subscribe(fn Listener) Subscription {
	l.orderMu.Lock()
	defer l.orderMu.Unlock()

	l.mu.Lock()
	l.nextToken++
	token := l.nextToken
	l.listeners[token] = fn
	snapshot := cloneEntries(l.entries)
	count := len(l.listeners)
	l.mu.Unlock()

	metrics.LogListeners.Set(float64(count))
	fn(snapshot)
	return token
}

// Unsubscribe removes a listener. Unknown subscriptions are ignored.
func (l *Log) Unsubscribe(sub Subscription) {
	l.orderMu.Lock()
	defer l.orderMu.Unlock()

	l.mu.Lock()
	delete(l.listeners, sub)
	count := len(l.listeners)
	l.mu.Unlock()

	metrics.LogListeners.Set(float64(count))
}

// notify delivers the current log to every listener. Callers hold orderMu.
func (l *Log) notify() {
	l.mu.RLock()
	snapshot := l.entries
	fns := make([]Listener, 0, len(l.listeners))
	tokens := make([]Subscription, 0, len(l.listeners))
	for token := range l.listeners {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	for _, token := range tokens {
		fns = append(fns, l.listeners[token])
	}
	// Copy per listener so no listener can alter what another sees.
	copies := make([][]Entry, len(fns))
	for i := range fns {
		copies[i] = cloneEntries(snapshot)
	}
	l.mu.RUnlock()

	for i, fn := range fns {
		fn(copies[i])
	}
}

// Restore loads persisted entries. Entries already in memory win over
// stored entries with the same id.
func (l *Log) Restore(ctx context.Context) error {
	if l.persister == nil {
		return nil
	}

	stored, err := l.persister.store.All(ctx)
	if err != nil {
		metrics.RecordPersistFailure("restore")
		return err
	}

	l.orderMu.Lock()
	defer l.orderMu.Unlock()

	l.mu.Lock()
	seen := make(map[int64]struct{}, len(l.entries))
	for i := range l.entries {
		seen[l.entries[i].ID] = struct{}{}
	}
	merged := cloneEntries(l.entries)
	for i := range stored {
		if _, ok := seen[stored[i].ID]; ok {
			continue
		}
		merged = append(merged, stored[i])
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].ID > merged[j].ID })

	threats := 0
	for i := range merged {
		if merged[i].IsThreat {
			threats++
		}
	}
	l.entries = merged
	l.threats = threats
	total := len(merged)
	l.mu.Unlock()

	metrics.UpdateLogSize(total, threats)
	logging.Info().
		Int("restored", len(stored)).
		Int("total", total).
		Int("threats", threats).
		Msg("Event log restored")

	l.notify()
	return nil
}

// Close drains pending store writes. The log stays usable in memory
// afterwards but nothing further is persisted.
func (l *Log) Close(ctx context.Context) error {
	if l.persister == nil {
		return nil
	}

	l.orderMu.Lock()
	l.persister.close()
	l.orderMu.Unlock()

	return l.persister.wait(ctx)
}

func cloneEntries(in []Entry) []Entry {
	out := make([]Entry, len(in))
	copy(out, in)
	return out
}
