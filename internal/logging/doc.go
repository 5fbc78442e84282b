// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

// Package logging provides centralized zerolog-based structured logging for AppGuard.
//
// JSON output is used in production and human-readable console output in
// development. Every package logs through the global logger configured here.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("package", pkg).Float32("score", score).Msg("App scanned")
//	logging.Error().Err(err).Msg("Scan failed")
//
//	// Correlation IDs follow a scan cycle through the coordinator,
//	// the classifier and the notifiers.
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("Scan cycle started")
//
// # Configuration
//
// Environment variables (read by internal/config):
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # Log Chains
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Prefer structured fields over Msgf; scan results are queried by package
// name and score in log pipelines.
//
// # Component Loggers
//
//	storeLogger := logging.WithComponent("store")
//	storeLogger.Debug().Msg("Value log GC pass")
//
// # slog Adapter
//
// suture v4 reports supervisor events through log/slog. NewSlogLogger
// returns an slog.Logger backed by the global zerolog logger:
//
//	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg)
//
// # Output Formats
//
// JSON:
//
//	{"level":"info","service":"appguard","time":"2026-10-15T10:30:00Z","message":"Scan cycle completed","scanned":42,"threats":1}
//
// Console (colour only when stderr is a terminal):
//
//	10:30:00 INF Scan cycle completed scanned=42 service=appguard threats=1
//
// # Testing
//
//	var buf bytes.Buffer
//	logging.SetLogger(logging.NewTestLogger(&buf))
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
package logging
