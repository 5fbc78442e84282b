// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package eventlog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockStore records operations and can block or fail on demand.
type mockStore struct {
	mu      sync.Mutex
	entries map[int64]Entry
	ops     []string

	insertErr error
	block     chan struct{} // when non-nil, Insert waits for it to close
}

func newMockStore() *mockStore {
	return &mockStore{entries: make(map[int64]Entry)}
}

func (m *mockStore) Insert(ctx context.Context, e Entry) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "insert")
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockStore) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "delete_all")
	m.entries = make(map[int64]Entry)
	return nil
}

func (m *mockStore) All(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *mockStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *mockStore) opsCopy() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

func scanRecord(app string, threat bool) Record {
	return Record{
		AppName:     app,
		PackageName: "com.example." + app,
		IsThreat:    threat,
		ThreatScore: 0.1,
		Action:      ActionBackgroundScan,
		Description: "Found safe in background scan",
	}
}

func TestAppend_AssignsIDsMostRecentFirst(t *testing.T) {
	t.Parallel()

	l := New(nil, DefaultConfig())

	for i, app := range []string{"a", "b", "c"} {
		e := l.Append(scanRecord(app, false))
		if e.ID != int64(i+1) {
			t.Errorf("Append(%s).ID = %d, want %d", app, e.ID, i+1)
		}
	}

	all := l.All()
	if len(all) != 3 {
		t.Fatalf("len(All()) = %d, want 3", len(all))
	}
	for i, want := range []int64{3, 2, 1} {
		if all[i].ID != want {
			t.Errorf("All()[%d].ID = %d, want %d", i, all[i].ID, want)
		}
	}
	if all[0].AppName != "c" {
		t.Errorf("most recent entry = %q, want c", all[0].AppName)
	}
}

func TestAppend_TimestampUTCMillis(t *testing.T) {
	t.Parallel()

	l := New(nil, DefaultConfig())
	loc := time.FixedZone("X", 3*3600)
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, loc)

	rec := scanRecord("a", false)
	rec.Timestamp = ts
	e := l.Append(rec)

	if e.Timestamp.Location() != time.UTC {
		t.Errorf("Timestamp location = %v, want UTC", e.Timestamp.Location())
	}
	if e.Timestamp.Nanosecond() != 123000000 {
		t.Errorf("Timestamp nanos = %d, want millisecond precision", e.Timestamp.Nanosecond())
	}
	if !e.Timestamp.Equal(ts.Truncate(time.Millisecond)) {
		t.Errorf("Timestamp = %v, want %v", e.Timestamp, ts)
	}

	before := time.Now().Add(-time.Second)
	e = l.Append(scanRecord("b", false))
	if e.Timestamp.Before(before) {
		t.Errorf("zero Timestamp was not replaced with capture time: %v", e.Timestamp)
	}
}

func TestAppend_ConcurrentIDsUnique(t *testing.T) {
	t.Parallel()

	l := New(nil, DefaultConfig())

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				l.Append(scanRecord("app", i%2 == 0))
			}
		}()
	}
	wg.Wait()

	all := l.All()
	if len(all) != writers*perWriter {
		t.Fatalf("len(All()) = %d, want %d", len(all), writers*perWriter)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].ID != all[i].ID+1 {
			t.Fatalf("ids not strictly decreasing by one at %d: %d then %d", i, all[i-1].ID, all[i].ID)
		}
	}
	if l.ThreatCount() != writers*perWriter/2 {
		t.Errorf("ThreatCount() = %d, want %d", l.ThreatCount(), writers*perWriter/2)
	}
}

func TestThreatsOnlyAndCounts(t *testing.T) {
	t.Parallel()

	l := New(nil, DefaultConfig())
	l.Append(scanRecord("a", false))
	l.Append(scanRecord("b", true))
	l.Append(scanRecord("c", false))
	l.Append(scanRecord("d", true))

	threats := l.ThreatsOnly()
	if len(threats) != 2 {
		t.Fatalf("len(ThreatsOnly()) = %d, want 2", len(threats))
	}
	if threats[0].AppName != "d" || threats[1].AppName != "b" {
		t.Errorf("ThreatsOnly() order = %s,%s, want d,b", threats[0].AppName, threats[1].AppName)
	}
	if l.ThreatCount() != 2 {
		t.Errorf("ThreatCount() = %d, want 2", l.ThreatCount())
	}
	if l.Len() != 4 {
		t.Errorf("Len() = %d, want 4", l.Len())
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	t.Parallel()

	l := New(nil, DefaultConfig())
	l.Append(scanRecord("a", false))

	all := l.All()
	all[0].AppName = "mutated"

	if got := l.All()[0].AppName; got != "a" {
		t.Errorf("log entry changed through returned slice: %q", got)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	l := New(store, DefaultConfig())
	l.Append(scanRecord("a", true))
	l.Append(scanRecord("b", false))

	var last []Entry
	l.Subscribe(func(entries []Entry) { last = entries })

	l.Clear()

	if l.Len() != 0 || l.ThreatCount() != 0 {
		t.Errorf("after Clear Len=%d ThreatCount=%d, want 0/0", l.Len(), l.ThreatCount())
	}
	if last == nil || len(last) != 0 {
		t.Errorf("listener got %v after Clear, want empty non-nil slice", last)
	}

	e := l.Append(scanRecord("c", false))
	if e.ID != 1 {
		t.Errorf("first id after Clear = %d, want 1", e.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := []string{"insert", "insert", "delete_all", "insert"}
	got := store.opsCopy()
	if len(got) != len(want) {
		t.Fatalf("store ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("store ops = %v, want %v", got, want)
			break
		}
	}
	if store.count() != 1 {
		t.Errorf("stored entries = %d, want 1", store.count())
	}
}

func TestSubscribe_ReplayAndOrder(t *testing.T) {
	t.Parallel()

	l := New(nil, DefaultConfig())
	l.Append(scanRecord("a", false))

	var mu sync.Mutex
	var sizes []int
	sub := l.Subscribe(func(entries []Entry) {
		mu.Lock()
		sizes = append(sizes, len(entries))
		mu.Unlock()
	})

	l.Append(scanRecord("b", false))
	l.Append(scanRecord("c", false))
	l.Unsubscribe(sub)
	l.Append(scanRecord("d", false))

	mu.Lock()
	defer mu.Unlock()
	want := []int{1, 2, 3}
	if len(sizes) != len(want) {
		t.Fatalf("listener calls = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("listener calls = %v, want %v", sizes, want)
			break
		}
	}
}

func TestSubscribe_ListenerCanReadLog(t *testing.T) {
	t.Parallel()

	l := New(nil, DefaultConfig())

	var lens []int
	l.Subscribe(func(entries []Entry) {
		lens = append(lens, l.Len())
	})
	l.Append(scanRecord("a", false))

	if len(lens) != 2 || lens[1] != 1 {
		t.Errorf("Len() seen from listener = %v, want [0 1]", lens)
	}
}

func TestUnsubscribe_Unknown(t *testing.T) {
	t.Parallel()

	l := New(nil, DefaultConfig())
	l.Unsubscribe(Subscription(42))
	l.Append(scanRecord("a", false))
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestPersistence_WritesEveryEntry(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	l := New(store, DefaultConfig())
	for i := 0; i < 20; i++ {
		l.Append(scanRecord("a", false))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if store.count() != 20 {
		t.Errorf("stored entries = %d, want 20", store.count())
	}

	// Appends after Close stay in memory.
	l.Append(scanRecord("late", false))
	if l.Len() != 21 {
		t.Errorf("Len() = %d, want 21", l.Len())
	}
	if store.count() != 20 {
		t.Errorf("stored entries after Close = %d, want 20", store.count())
	}
}

func TestPersistence_SlowStoreDoesNotBlockListeners(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.block = make(chan struct{})
	l := New(store, Config{QueueSize: 2, WriteTimeout: 5 * time.Second})

	notified := 0
	l.Subscribe(func([]Entry) { notified++ })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			l.Append(scanRecord("a", false))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Append blocked on a stalled store")
	}
	if notified != 11 {
		t.Errorf("listener calls = %d, want 11", notified)
	}

	close(store.block)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// One write may be in flight plus QueueSize queued; the rest were dropped.
	if got := store.count(); got < 1 || got > 3 {
		t.Errorf("stored entries = %d, want between 1 and 3", got)
	}
	if l.Len() != 10 {
		t.Errorf("Len() = %d, want 10", l.Len())
	}
}

func TestPersistence_StoreErrorKeepsMemory(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.insertErr = errors.New("disk full")
	l := New(store, DefaultConfig())

	l.Append(scanRecord("a", true))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestRestore(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 3; i++ {
		store.entries[i] = Entry{
			ID:        i,
			AppName:   "stored",
			IsThreat:  i == 2,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Action:    ActionBackgroundScan,
		}
	}

	l := New(store, DefaultConfig())

	var replayed []Entry
	l.Subscribe(func(entries []Entry) { replayed = entries })

	if err := l.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	all := l.All()
	if len(all) != 3 {
		t.Fatalf("len(All()) = %d, want 3", len(all))
	}
	if all[0].ID != 3 || all[2].ID != 1 {
		t.Errorf("restored order = %d..%d, want 3..1", all[0].ID, all[2].ID)
	}
	if l.ThreatCount() != 1 {
		t.Errorf("ThreatCount() = %d, want 1", l.ThreatCount())
	}
	if len(replayed) != 3 {
		t.Errorf("listener saw %d entries after Restore, want 3", len(replayed))
	}

	if e := l.Append(scanRecord("new", false)); e.ID != 4 {
		t.Errorf("id after Restore = %d, want 4", e.ID)
	}
}

func TestRestore_MemoryOnly(t *testing.T) {
	t.Parallel()

	l := New(nil, DefaultConfig())
	if err := l.Restore(context.Background()); err != nil {
		t.Errorf("Restore() error = %v", err)
	}
	if err := l.Close(context.Background()); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestParseActionType(t *testing.T) {
	t.Parallel()

	for a := range actionTypes {
		got, err := ParseActionType(string(a))
		if err != nil || got != a {
			t.Errorf("ParseActionType(%q) = %q, %v", a, got, err)
		}
	}

	for _, bad := range []string{"", "scan_started", "UNKNOWN"} {
		if _, err := ParseActionType(bad); err == nil {
			t.Errorf("ParseActionType(%q) expected error", bad)
		}
	}
}
