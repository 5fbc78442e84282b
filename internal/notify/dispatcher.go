// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/metrics"
)

// Dispatcher fans notifications out to every enabled notifier. Delivery is
// fire-and-forget: each notifier runs on its own goroutine and failures are
// logged, never returned to the scanner.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers []Notifier
	timeout   time.Duration

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher. timeout bounds each delivery.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{timeout: timeout}
}

// Register adds a notifier.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers = append(d.notifiers, n)
	logging.Info().Str("notifier", n.Name()).Bool("enabled", n.Enabled()).Msg("Notifier registered")
}

// Notifiers returns the registered notifier names.
func (d *Dispatcher) Notifiers() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, len(d.notifiers))
	for i, n := range d.notifiers {
		names[i] = n.Name()
	}
	return names
}

// ThreatDetected raises the threat alert for appName.
func (d *Dispatcher) ThreatDetected(ctx context.Context, appName string) {
	d.Dispatch(ctx, ThreatNotification(appName))
}

// ScanResult raises the per-application verdict alert.
func (d *Dispatcher) ScanResult(ctx context.Context, appName string, isThreat bool, score float32) {
	d.Dispatch(ctx, ScanResultNotification(appName, isThreat, score))
}

// Dispatch sends n to every enabled notifier without waiting.
//
// Deliveries are detached from ctx cancellation so a scan that is being
// stopped still gets its alerts out; ctx values are kept for logging.
func (d *Dispatcher) Dispatch(ctx context.Context, n *Notification) {
	d.mu.RLock()
	notifiers := make([]Notifier, 0, len(d.notifiers))
	for _, notifier := range d.notifiers {
		if notifier.Enabled() {
			notifiers = append(notifiers, notifier)
		}
	}
	d.mu.RUnlock()

	base := context.WithoutCancel(ctx)
	for _, notifier := range notifiers {
		d.wg.Add(1)
		go func(nt Notifier) {
			defer d.wg.Done()

			sendCtx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()

			err := nt.Send(sendCtx, n)
			metrics.RecordNotification(nt.Name(), err)
			if err != nil {
				level := zerolog.ErrorLevel
				if isTemporary(err) {
					level = zerolog.WarnLevel
				}
				logging.Ctx(sendCtx).WithLevel(level).
					Err(err).
					Str("notifier", nt.Name()).
					Str("kind", string(n.Kind)).
					Str("app", n.AppName).
					Msg("Failed to send notification")
			}
		}(notifier)
	}
}

// isTemporary reports whether err says a later retry may succeed, as a
// webhook 5xx does. Those are logged at warn.
func isTemporary(err error) bool {
	var t interface{ Temporary() bool }
	return errors.As(err, &t) && t.Temporary()
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
