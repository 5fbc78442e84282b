// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

/*
Package middleware provides HTTP middleware shared by the API router.

  - RequestID: UUID request tracking, wired into the logging context
  - PrometheusMetrics: request count and latency by chi route pattern

Both are plain func(http.Handler) http.Handler and compose with chi's
r.Use:

	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
