// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

/*
Package websocket pushes live updates to connected dashboards.

A Hub owns the set of clients and fans messages out to them. Each Client
runs a read pump, which answers application-level pings and resync
requests, and a write pump, which drains the client's send queue and keeps
the connection alive with protocol pings. A client whose queue is full is
disconnected rather than allowed to stall the hub.

Message types:

  - log_snapshot: the full event log, sent on join and after every change
  - threat_alert: a threat notification
  - scan_result: a per-application verdict notification
  - ping / pong: client keepalive
  - resync: client request to resend the current log_snapshot

LogFeed subscribes to an eventlog.Log and produces log_snapshot messages.
AlertNotifier implements notify.Notifier on top of the hub.
*/
package websocket
