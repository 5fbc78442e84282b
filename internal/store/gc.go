// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package store

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/appguard/internal/logging"
)

// GCLoop runs value log garbage collection on an interval.
type GCLoop struct {
	store    *BadgerStore
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	lastRun time.Time
	runs    int64
}

// NewGCLoop creates a GC loop using the store's configured interval.
func NewGCLoop(store *BadgerStore) *GCLoop {
	interval := store.Config().GCInterval
	if interval <= 0 {
		interval = time.Hour
	}
	return &GCLoop{store: store, interval: interval}
}

// Start begins the background loop.
func (g *GCLoop) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return nil
	}
	g.ctx, g.cancel = context.WithCancel(ctx)
	g.running = true
	g.mu.Unlock()

	g.wg.Add(1)
	go g.run()

	logging.Info().Dur("interval", g.interval).Msg("Event store GC started")
	return nil
}

// Stop stops the loop and waits for a running GC pass to finish.
func (g *GCLoop) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.cancel()
	g.running = false
	g.mu.Unlock()

	g.wg.Wait()
	logging.Info().Msg("Event store GC stopped")
}

// IsRunning returns whether the loop is active.
func (g *GCLoop) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Runs returns how many GC passes have completed and when the last one ran.
func (g *GCLoop) Runs() (int64, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runs, g.lastRun
}

func (g *GCLoop) run() {
	defer g.wg.Done()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			g.RunNow()
		}
	}
}

// RunNow performs one GC pass immediately.
func (g *GCLoop) RunNow() {
	if err := g.store.RunGC(); err != nil {
		logging.Error().Err(err).Msg("Event store GC error")
	}

	g.mu.Lock()
	g.runs++
	g.lastRun = time.Now()
	g.mu.Unlock()
}
