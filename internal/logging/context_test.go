// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateCorrelationID(t *testing.T) {
	t.Parallel()

	id1 := GenerateCorrelationID()
	id2 := GenerateCorrelationID()

	if len(id1) != 8 {
		t.Errorf("expected 8-character correlation ID, got %d", len(id1))
	}
	if id1 == id2 {
		t.Error("expected unique correlation IDs")
	}
}

func TestContextIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("CorrelationIDFromContext(empty) = %q, want empty", got)
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	ctx = ContextWithRequestID(ctx, "req-1")

	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("CorrelationIDFromContext = %q, want abc12345", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext = %q, want req-1", got)
	}

	fresh := ContextWithNewCorrelationID(context.Background())
	if len(CorrelationIDFromContext(fresh)) != 8 {
		t.Error("ContextWithNewCorrelationID did not store a generated id")
	}
}

func TestContextIDs_Independent(t *testing.T) {
	t.Parallel()

	base := ContextWithRequestID(context.Background(), "req-1")
	scan := ContextWithCorrelationID(base, "scan0001")

	if got := CorrelationIDFromContext(base); got != "" {
		t.Errorf("parent context gained correlation id %q", got)
	}
	if got := RequestIDFromContext(scan); got != "req-1" {
		t.Errorf("request id lost: %q", got)
	}
}

func TestCtxWithoutIDs(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)
	SetLogger(NewTestLogger(&buf))

	Ctx(context.Background()).Info().Msg("bare")

	if strings.Contains(buf.String(), "correlation_id") || strings.Contains(buf.String(), "request_id") {
		t.Errorf("unexpected id fields: %s", buf.String())
	}
}

func TestCtxAddsFields(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)
	SetLogger(NewTestLogger(&buf))

	ctx := ContextWithCorrelationID(context.Background(), "cid00001")
	ctx = ContextWithRequestID(ctx, "rid-1")
	Ctx(ctx).Info().Msg("with context")

	output := buf.String()
	if !strings.Contains(output, `"correlation_id":"cid00001"`) {
		t.Errorf("missing correlation_id: %s", output)
	}
	if !strings.Contains(output, `"request_id":"rid-1"`) {
		t.Errorf("missing request_id: %s", output)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)
	SetLogger(NewTestLogger(&buf))

	logger := WithComponent("scanner")
	logger.Info().Msg("tick")

	if !strings.Contains(buf.String(), `"component":"scanner"`) {
		t.Errorf("missing component field: %s", buf.String())
	}
}
