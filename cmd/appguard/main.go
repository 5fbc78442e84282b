// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/appguard/internal/api"
	"github.com/tomtom215/appguard/internal/config"
	"github.com/tomtom215/appguard/internal/eventlog"
	"github.com/tomtom215/appguard/internal/inventory"
	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/scanner"
	"github.com/tomtom215/appguard/internal/store"
	"github.com/tomtom215/appguard/internal/supervisor"
	"github.com/tomtom215/appguard/internal/supervisor/services"
	ws "github.com/tomtom215/appguard/internal/websocket"
)

// finalizeTimeout bounds the post-supervisor cleanup of deliveries and
// store writes.
const finalizeTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.LoggingSettings())
	logging.Info().Str("version", api.Version).Msg("Starting AppGuard")

	if cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS allows any origin; restrict server.cors_origins outside development")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === DATA LAYER ===

	var db *store.BadgerStore
	var persist eventlog.Store
	if cfg.Store.Enabled {
		db, err = store.Open(cfg.StoreSettings())
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open event store")
		}
		persist = db
	} else {
		logging.Warn().Msg("Event store disabled, log entries are kept in memory only")
	}

	eventLog := eventlog.New(persist, cfg.EventLogSettings())
	if err := eventLog.Restore(ctx); err != nil {
		logging.Error().Err(err).Msg("Failed to restore event log, starting empty")
	}

	// === SCAN LAYER ===

	client := loadModel(cfg.Model.Path, cfg.InferenceSettings(), eventLog)

	hub := ws.NewHub()
	feed := ws.NewLogFeed(hub, eventLog)
	feed.Start()

	notifications, err := InitNotify(ctx, cfg.Notify, hub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize notifications")
	}

	source := inventory.NewFileSource(cfg.Inventory.ManifestPath)
	coordinator := scanner.New(source, client, eventLog, notifications.Dispatcher, cfg.ScannerSettings())

	// === API LAYER ===

	handler := api.NewHandler(eventLog, coordinator, client, hub)
	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Server.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Server.RateLimitWindow
	mwConfig.RateLimitDisabled = cfg.Server.RateLimitDisabled
	router := api.NewRouter(handler, api.NewChiMiddleware(mwConfig), cfg.Server.RequestTimeout)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if db != nil {
		tree.AddDataService(services.NewStoreGCService(store.NewGCLoop(db)))
	}
	tree.AddScanService(services.NewScannerService(coordinator))
	tree.AddScanService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Dur("scan_interval", cfg.Scanner.Interval).
		Bool("model_loaded", client.Available()).
		Msg("Starting supervisor tree")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// === FINALIZE ===

	finalizeCtx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	feed.Stop()
	notifications.Shutdown(finalizeCtx)

	if err := eventLog.Close(finalizeCtx); err != nil {
		logging.Error().Err(err).Msg("Pending event log writes were not flushed")
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event store")
		}
	}

	logging.Info().Msg("AppGuard stopped")
}
