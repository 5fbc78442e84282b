// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/appguard/internal/middleware"
)

// ChiMiddlewareConfig configures CORS and rate limiting for the API.
type ChiMiddlewareConfig struct {
	// CORSAllowedOrigins is empty by default: browsers on other origins
	// are refused until origins are configured.
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	// RateLimitRequests per RateLimitWindow are allowed for each client IP
	// on each endpoint, so polling /logs cannot starve POST /scans.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns the defaults used when nothing is
// configured.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		CORSAllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		CORSMaxAge:         86400,
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
	}
}

// ChiMiddleware builds the router's CORS and rate limit middleware from
// one config.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
}

// NewChiMiddleware wraps config. A nil config uses the defaults.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}
	return &ChiMiddleware{config: config}
}

// CORS returns the go-chi/cors middleware. The request ID header is
// exposed so dashboards can quote it in bug reports.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: m.config.CORSAllowedOrigins,
		AllowedMethods: m.config.CORSAllowedMethods,
		AllowedHeaders: m.config.CORSAllowedHeaders,
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         m.config.CORSMaxAge,
	})
}

// RateLimit returns the httprate limiter, or a pass-through when limiting
// is disabled or RateLimitRequests is not positive.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	c := m.config
	if c.RateLimitDisabled || c.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(c.RateLimitRequests, c.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			respondError(w, http.StatusTooManyRequests, CodeRateLimited, "Too many requests", nil)
		}),
	)
}

// AllowedOrigins returns the configured CORS origins, which also govern
// WebSocket upgrades.
func (m *ChiMiddleware) AllowedOrigins() []string {
	return m.config.CORSAllowedOrigins
}
