// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

// Package scanner periodically scores installed applications and records
// the verdicts in the event log.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/appguard/internal/classifier"
	"github.com/tomtom215/appguard/internal/eventlog"
	"github.com/tomtom215/appguard/internal/features"
	"github.com/tomtom215/appguard/internal/inventory"
	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/metrics"
	"github.com/tomtom215/appguard/internal/models"
)

// Entry descriptions.
const (
	DescriptionSafe      = "Found safe in background scan"
	DescriptionDangerous = "Found dangerous in background scan"
	DescriptionThreat    = "Malicious application detected by background monitoring"
)

// ErrScanInProgress is returned when a scan is requested while one runs.
var ErrScanInProgress = errors.New("scan already in progress")

// Scorer produces a threat score for a feature vector.
type Scorer interface {
	Score(ctx context.Context, v features.Vector) (float32, error)
}

// Recorder appends entries to the event log.
type Recorder interface {
	Append(rec eventlog.Record) eventlog.Entry
}

// Notifier raises user-facing alerts. Implementations must not block.
type Notifier interface {
	ThreatDetected(ctx context.Context, appName string)
	ScanResult(ctx context.Context, appName string, isThreat bool, score float32)
}

// Config controls the coordinator.
type Config struct {
	// Interval between scan cycles. Default: 30s
	Interval time.Duration

	// ScanTimeout bounds a single cycle. Stop never cancels a running
	// cycle, so this is the only limit on how long Stop can wait.
	// Default: 10m
	ScanTimeout time.Duration

	// RecordCycles appends SCAN_STARTED and SCAN_COMPLETED entries around
	// every cycle.
	RecordCycles bool

	// RecordLifecycle appends SERVICE_STARTED and SERVICE_STOPPED entries.
	RecordLifecycle bool

	// NotifyScanResults raises a notification for every scored app, not
	// just threats.
	NotifyScanResults bool
}

// DefaultConfig returns the default coordinator configuration.
func DefaultConfig() Config {
	return Config{
		Interval:        30 * time.Second,
		ScanTimeout:     10 * time.Minute,
		RecordLifecycle: true,
	}
}

// Coordinator drives periodic scans. Overlapping cycles are never run: a
// tick that fires while a cycle is in progress is skipped and counted.
type Coordinator struct {
	source   inventory.Source
	scorer   Scorer
	log      Recorder
	notifier Notifier
	config   Config
	dedup    *DedupSet

	// scanning is the in-progress guard shared by ticks and manual scans.
	scanning atomic.Bool

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	scanWG sync.WaitGroup

	// triggerMu orders scanWG.Add in Trigger against scanWG.Wait in Stop.
	triggerMu sync.Mutex

	// State
	mu      sync.Mutex
	running bool

	statsMu sync.Mutex
	stats   Status
}

// New creates a coordinator. notifier may be nil.
func New(source inventory.Source, scorer Scorer, log Recorder, notifier Notifier, cfg Config) *Coordinator {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = 10 * time.Minute
	}
	return &Coordinator{
		source:   source,
		scorer:   scorer,
		log:      log,
		notifier: notifier,
		config:   cfg,
		dedup:    NewDedupSet(),
		stats:    Status{State: StateIdle, Interval: cfg.Interval},
	}
}

// Start runs a scan immediately, then one every Interval.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.running = true
	c.mu.Unlock()

	if c.config.RecordLifecycle {
		c.log.Append(eventlog.Record{
			AppName:     eventlog.SystemAppName,
			Action:      eventlog.ActionServiceStarted,
			Description: "Background monitoring started",
		})
	}

	c.wg.Add(1)
	go c.run()

	logging.Info().Dur("interval", c.config.Interval).Msg("Scan coordinator started")
	return nil
}

// Stop cancels the ticker and waits for a running cycle to finish. No
// cycle starts after Stop returns.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.cancel()
	c.running = false
	c.mu.Unlock()

	c.wg.Wait()
	c.triggerMu.Lock()
	c.scanWG.Wait()
	c.triggerMu.Unlock()

	if c.config.RecordLifecycle {
		c.log.Append(eventlog.Record{
			AppName:     eventlog.SystemAppName,
			Action:      eventlog.ActionServiceStopped,
			Description: "Background monitoring stopped",
		})
	}
	logging.Info().Msg("Scan coordinator stopped")
}

// IsRunning returns whether the periodic loop is active.
func (c *Coordinator) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// RunWithContext starts the coordinator and blocks until ctx is done.
func (c *Coordinator) RunWithContext(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	c.Stop()
	return ctx.Err()
}

func (c *Coordinator) run() {
	defer c.wg.Done()

	c.tick()

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			// A tick and a cancellation can be ready together; select
			// picks randomly, so re-check before scanning.
			if c.ctx.Err() != nil {
				return
			}
			c.tick()
		}
	}
}

func (c *Coordinator) tick() {
	ctx := logging.ContextWithNewCorrelationID(c.ctx)
	if _, err := c.tryScan(ctx); errors.Is(err, ErrScanInProgress) {
		c.statsMu.Lock()
		c.stats.TicksSkipped++
		c.statsMu.Unlock()
		metrics.RecordScanTick("skipped", 0)
		logging.Warn().Msg("Previous scan still running, skipping tick")
	}
}

// ScanNow runs one cycle synchronously. It returns ErrScanInProgress if a
// cycle is already running.
func (c *Coordinator) ScanNow(ctx context.Context) (Summary, error) {
	return c.tryScan(ctx)
}

// Trigger starts one cycle in the background. It returns
// ErrScanInProgress if a cycle is already running.
func (c *Coordinator) Trigger(ctx context.Context) error {
	if !c.scanning.CompareAndSwap(false, true) {
		return ErrScanInProgress
	}
	c.triggerMu.Lock()
	c.scanWG.Add(1)
	c.triggerMu.Unlock()
	go func() {
		defer c.scanWG.Done()
		defer c.scanning.Store(false)
		c.scanOnce(ctx)
	}()
	return nil
}

func (c *Coordinator) tryScan(ctx context.Context) (Summary, error) {
	if !c.scanning.CompareAndSwap(false, true) {
		return Summary{}, ErrScanInProgress
	}
	defer c.scanning.Store(false)

	summary := c.scanOnce(ctx)
	return summary, summary.Err
}

// scanOnce runs one cycle. The caller holds the scanning flag.
func (c *Coordinator) scanOnce(parent context.Context) Summary {
	// A running cycle is never canceled by Stop; only ScanTimeout bounds it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.config.ScanTimeout)
	defer cancel()
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	logger := logging.Ctx(ctx)

	start := time.Now()
	c.setState(StateScanning)
	defer c.setState(StateIdle)

	if c.config.RecordCycles {
		c.log.Append(eventlog.Record{
			AppName:     eventlog.SystemAppName,
			Action:      eventlog.ActionScanStarted,
			Description: "Background scan started",
		})
	}

	var summary Summary
	apps, err := c.source.Enumerate(ctx)
	if err != nil {
		var enumErr *inventory.EnumerationError
		if !errors.As(err, &enumErr) {
			err = &inventory.EnumerationError{Source: "inventory", Err: err}
		}
		summary.Err = err
		summary.Duration = time.Since(start)
		logger.Error().Err(err).Msg("App enumeration failed, skipping scan cycle")
		metrics.RecordScanTick("enumeration_failed", summary.Duration)
		c.finish(summary)
		return summary
	}
	summary.Enumerated = len(apps)

	for i := range apps {
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("Scan cycle timed out")
			summary.Err = fmt.Errorf("scan cycle: %w", ctx.Err())
			break
		}

		app := &apps[i]
		if !app.IsUserRelevant() {
			continue
		}
		summary.Relevant++

		if c.dedup.Contains(app.PackageName) {
			summary.Skipped++
			continue
		}

		verdict, name, err := c.scanApp(ctx, app)
		if err != nil {
			summary.Failures++
			metrics.RecordAppScanFailure("inference")
			logger.Error().Err(err).Str("package", app.PackageName).Msg("Scoring failed, app will be retried next cycle")
			continue
		}

		c.record(ctx, app.PackageName, name, verdict)
		c.markScanned(app.PackageName)

		summary.Scanned++
		if verdict.IsThreat {
			summary.Threats++
		}
	}

	summary.Duration = time.Since(start)
	outcome := "completed"
	if summary.Err != nil {
		outcome = "timed_out"
	}
	metrics.RecordScanTick(outcome, summary.Duration)

	if c.config.RecordCycles {
		c.log.Append(eventlog.Record{
			AppName:     eventlog.SystemAppName,
			Action:      eventlog.ActionScanCompleted,
			Description: fmt.Sprintf("Background scan completed: %d scanned, %d threats", summary.Scanned, summary.Threats),
		})
	}

	logger.Info().
		Int("enumerated", summary.Enumerated).
		Int("relevant", summary.Relevant).
		Int("scanned", summary.Scanned).
		Int("already_scanned", summary.Skipped).
		Int("threats", summary.Threats).
		Int("failures", summary.Failures).
		Dur("duration", summary.Duration).
		Msg("Scan cycle finished")

	c.finish(summary)
	return summary
}

// scanApp scores one application. Missing metadata is not an error: the
// app is encoded as unknown and named by its package.
func (c *Coordinator) scanApp(ctx context.Context, app *models.AppDescriptor) (classifier.Verdict, string, error) {
	name := app.PackageName
	desc, err := c.source.Describe(ctx, app.PackageName)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("package", app.PackageName).Msg("App metadata unavailable")
		desc = nil
	} else {
		name = desc.DisplayName()
	}

	vec := features.Encode(desc)
	logging.Ctx(ctx).Debug().Str("package", app.PackageName).Int("features_set", vec.NonZero()).Msg("App encoded")

	score, err := c.scorer.Score(ctx, vec)
	if err != nil {
		return classifier.Verdict{}, name, err
	}
	return classifier.Classify(score), name, nil
}

func (c *Coordinator) record(ctx context.Context, pkg, name string, v classifier.Verdict) {
	description := DescriptionSafe
	if v.IsThreat {
		description = DescriptionDangerous
	}
	c.log.Append(eventlog.Record{
		AppName:     name,
		PackageName: pkg,
		IsThreat:    v.IsThreat,
		ThreatScore: v.Score,
		Action:      eventlog.ActionBackgroundScan,
		Description: description,
	})
	metrics.RecordAppScanned(v.Label())

	if v.IsThreat {
		c.log.Append(eventlog.Record{
			AppName:     name,
			PackageName: pkg,
			IsThreat:    true,
			ThreatScore: v.Score,
			Action:      eventlog.ActionThreatDetected,
			Description: DescriptionThreat,
		})
		if c.notifier != nil {
			c.notifier.ThreatDetected(ctx, name)
		}
	}

	if c.config.NotifyScanResults && c.notifier != nil {
		c.notifier.ScanResult(ctx, name, v.IsThreat, v.Score)
	}
}

// markScanned is called only after a successful score, so a failed
// inference leaves the package eligible for the next cycle.
func (c *Coordinator) markScanned(pkg string) {
	if c.dedup.Add(pkg) {
		metrics.DedupSetSize.Set(float64(c.dedup.Len()))
	}
}

func (c *Coordinator) setState(s State) {
	c.statsMu.Lock()
	c.stats.State = s
	c.statsMu.Unlock()
}

func (c *Coordinator) finish(s Summary) {
	now := time.Now().UTC()

	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	c.stats.TicksRun++
	c.stats.AppsScanned += int64(s.Scanned)
	c.stats.Threats += int64(s.Threats)
	c.stats.ScanFailures += int64(s.Failures)
	c.stats.LastScanAt = &now
	c.stats.LastDuration = s.Duration
	summary := s
	c.stats.LastSummary = &summary
	c.stats.LastError = ""
	if s.Err != nil {
		c.stats.LastError = s.Err.Error()
	}
}

// Status returns a snapshot of the coordinator's state and counters.
func (c *Coordinator) Status() Status {
	c.statsMu.Lock()
	st := c.stats
	if st.LastScanAt != nil {
		t := *st.LastScanAt
		st.LastScanAt = &t
	}
	if st.LastSummary != nil {
		s := *st.LastSummary
		st.LastSummary = &s
	}
	c.statsMu.Unlock()

	st.Running = c.IsRunning()
	st.DedupSize = c.dedup.Len()
	return st
}

// Scanned reports whether pkg has been scored in this process.
func (c *Coordinator) Scanned(pkg string) bool {
	return c.dedup.Contains(pkg)
}
