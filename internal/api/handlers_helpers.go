// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/models"
	"github.com/tomtom215/appguard/internal/validation"
)

const hexDigits = "0123456789abcdef"

// sanitizeLogValue escapes ASCII control characters as \xNN so a header or
// query value cannot forge log lines.
func sanitizeLogValue(s string) string {
	if strings.IndexFunc(s, isControl) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		if !isControl(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteString(`\x`)
		b.WriteByte(hexDigits[r>>4])
		b.WriteByte(hexDigits[r&0xf])
	}
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// writeEnvelope marshals resp and writes it with status. Responses reflect
// a log that changes every scan and are never cached.
func writeEnvelope(w http.ResponseWriter, status int, resp *models.APIResponse) {
	resp.Metadata.Timestamp = time.Now().UTC()

	body, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode API response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Msg("Client went away before response was written")
	}
}

func respondSuccess(w http.ResponseWriter, status int, data interface{}, count int) {
	writeEnvelope(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Count: count},
	})
}

// respondError writes an error envelope. cause, when set, is logged but
// never returned to the client.
func respondError(w http.ResponseWriter, status int, code, message string, cause error) {
	if cause != nil {
		logging.Error().
			Str("code", sanitizeLogValue(code)).
			Str("error", sanitizeLogValue(cause.Error())).
			Int("status", status).
			Msg("API request failed")
	}
	respondAPIError(w, status, &models.APIError{Code: code, Message: message})
}

func respondAPIError(w http.ResponseWriter, status int, apiErr *models.APIError) {
	writeEnvelope(w, status, &models.APIResponse{Status: "error", Error: apiErr})
}

// validateRequest runs the struct's validate tags and converts failures to
// the API error body.
func validateRequest(v interface{}) *models.APIError {
	errs := validation.ValidateStruct(v)
	if errs == nil {
		return nil
	}
	e := errs.ToAPIError()
	return &models.APIError{Code: e.Code, Message: e.Message, Details: e.Details}
}

// parseLogsRequest reads limit, offset and threats from the query string.
// Missing numbers default to zero; range checks are left to validateRequest.
func parseLogsRequest(r *http.Request) (LogsRequest, *models.APIError) {
	q := r.URL.Query()
	var req LogsRequest

	for _, p := range []struct {
		key string
		dst *int
	}{
		{"limit", &req.Limit},
		{"offset", &req.Offset},
	} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, &models.APIError{
				Code:    CodeValidation,
				Message: p.key + " must be an integer",
				Details: map[string]interface{}{"field": p.key, "value": raw},
			}
		}
		*p.dst = n
	}

	if raw := q.Get("threats"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return req, &models.APIError{
				Code:    CodeValidation,
				Message: "threats must be a boolean",
				Details: map[string]interface{}{"field": "threats", "value": raw},
			}
		}
		req.ThreatsOnly = b
	}
	return req, nil
}
