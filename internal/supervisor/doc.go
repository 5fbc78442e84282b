// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

/*
Package supervisor provides process supervision for AppGuard using suture v4.

# Overview

The supervisor tree organizes long-running services into three layers:

	RootSupervisor ("appguard")
	├── DataSupervisor ("data-layer")
	│   └── store-gc (if the event store is enabled)
	├── ScanSupervisor ("scan-layer")
	│   ├── scan-coordinator
	│   └── websocket-hub
	└── APISupervisor ("api-layer")
	    └── http-server

Each layer counts failures independently: a scanner that keeps failing
backs off without restarting the HTTP server, and an HTTP server that
cannot bind does not stop background scanning.

Supervisor events (starts, failures, backoff) are logged through the
sutureslog hook on the slog logger passed to NewSupervisorTree; main passes
logging.NewSlogLogger so they end up in the zerolog output.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: 30 * time.Second,
	})
	if err != nil {
	    return err
	}

	tree.AddDataService(services.NewStoreGCService(gcLoop))
	tree.AddScanService(services.NewScannerService(coordinator))
	tree.AddScanService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, ":8080", 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor stopped")
	}

# Shutdown

Cancelling the context stops every layer. The scan coordinator's Stop waits
for an in-flight scan, so ShutdownTimeout should exceed the scan timeout if
scans must never be abandoned. Services still running after the timeout are
listed by UnstoppedServiceReport.

# What Is NOT Supervised

The event log, the notification dispatcher and the BadgerDB store are
libraries owned by main; they are closed after the tree returns.
*/
package supervisor
