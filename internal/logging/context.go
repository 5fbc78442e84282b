// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// traceKey holds a trace in a context.
type traceKey struct{}

// trace is the set of ids attached to log lines for one unit of work. A scan
// cycle carries only a correlation id; an API request carries both.
type trace struct {
	correlationID string
	requestID     string
}

func traceFrom(ctx context.Context) trace {
	t, _ := ctx.Value(traceKey{}).(trace)
	return t
}

func withTrace(ctx context.Context, update func(*trace)) context.Context {
	t := traceFrom(ctx)
	update(&t)
	return context.WithValue(ctx, traceKey{}, t)
}

// GenerateCorrelationID returns a short random id (the first 8 characters
// of a UUID).
func GenerateCorrelationID() string {
	return uuid.NewString()[:8]
}

// ContextWithCorrelationID returns ctx carrying id as its correlation id.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return withTrace(ctx, func(t *trace) { t.correlationID = id })
}

// ContextWithNewCorrelationID returns ctx carrying a fresh correlation id.
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return traceFrom(ctx).correlationID
}

// ContextWithRequestID returns ctx carrying id as its HTTP request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withTrace(ctx, func(t *trace) { t.requestID = id })
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	return traceFrom(ctx).requestID
}

// Ctx returns the global logger with the ids carried by ctx.
//
//	logging.Ctx(ctx).Info().Msg("Scan cycle finished")
func Ctx(ctx context.Context) *zerolog.Logger {
	t := traceFrom(ctx)
	if t == (trace{}) {
		l := Logger()
		return &l
	}

	logCtx := With()
	if t.correlationID != "" {
		logCtx = logCtx.Str("correlation_id", t.correlationID)
	}
	if t.requestID != "" {
		logCtx = logCtx.Str("request_id", t.requestID)
	}
	l := logCtx.Logger()
	return &l
}

// WithComponent returns a child of the global logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
