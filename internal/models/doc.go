// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

/*
Package models defines the data structures shared across AppGuard packages.

Key Components:

  - AppDescriptor: metadata snapshot of one installed application, produced
    by the inventory source and consumed by the feature encoder
  - APIResponse: standard HTTP response envelope
  - APIError: error body with a stable machine-readable code
  - LogStats: event log counters
  - HealthStatus: body of the /health endpoint

AppDescriptor carries validator/v10 struct tags; the inventory source drops
descriptors that fail validation before they reach the scanner.
*/
package models
