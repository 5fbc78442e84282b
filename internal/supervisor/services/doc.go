// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

/*
Package services provides suture.Service wrappers for AppGuard components.

Each wrapper translates a component's lifecycle into suture's context-aware
Serve method and names itself through fmt.Stringer for supervisor logs.

# Available Services

HTTPServerService (api layer):
  - Wraps *http.Server; ListenAndServe in a goroutine
  - Shutdown with its own timeout on cancellation

WebSocketHubService (scan layer):
  - Delegates to websocket.Hub.RunWithContext
  - Clients are closed on shutdown and resynchronise on reconnect

LoopService (scan and data layers):
  - NewScannerService wraps the scan coordinator
  - NewStoreGCService wraps the BadgerDB value log GC loop
  - Start, wait for cancellation, then Stop

# Return Values

	nil         -> stopped cleanly, not restarted
	error       -> crashed, restarted with backoff
	ctx.Err()   -> shutdown requested

# Usage

	tree.AddDataService(services.NewStoreGCService(store.NewGCLoop(db)))
	tree.AddScanService(services.NewScannerService(coordinator))
	tree.AddScanService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, ":8080", 10*time.Second))
*/
package services
