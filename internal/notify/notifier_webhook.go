// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DeliveryHeader carries the payload's DeliveryID so receivers can drop
// duplicates.
const DeliveryHeader = "X-AppGuard-Delivery"

const (
	defaultWebhookInterval = 500 * time.Millisecond
	defaultWebhookTimeout  = 10 * time.Second
)

// WebhookConfig configures the webhook notifier.
type WebhookConfig struct {
	WebhookURL  string            `json:"webhook_url" koanf:"url"`
	Headers     map[string]string `json:"headers,omitempty" koanf:"headers"`
	Enabled     bool              `json:"enabled" koanf:"enabled"`
	RateLimitMs int               `json:"rate_limit_ms" koanf:"rate_limit_ms"`
	Timeout     time.Duration     `json:"timeout" koanf:"timeout"`
}

// WebhookPayload is the JSON body posted to the endpoint.
type WebhookPayload struct {
	DeliveryID   string        `json:"delivery_id"`
	EventType    string        `json:"event_type"`
	Source       string        `json:"source"`
	Timestamp    time.Time     `json:"timestamp"`
	Notification *Notification `json:"notification"`
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.StatusCode)
}

// Temporary reports whether retrying later may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// WebhookNotifier posts notifications as JSON, at most one per RateLimitMs.
type WebhookNotifier struct {
	url     string
	header  http.Header
	client  *http.Client
	limiter *rate.Limiter
	enabled atomic.Bool
}

// NewWebhookNotifier builds a notifier from cfg. Headers are copied.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	interval := time.Duration(cfg.RateLimitMs) * time.Millisecond
	if interval <= 0 {
		interval = defaultWebhookInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}

	header := make(http.Header, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		header.Set(k, v)
	}
	header.Set("Content-Type", "application/json")

	n := &WebhookNotifier{
		url:     cfg.WebhookURL,
		header:  header,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
	n.enabled.Store(cfg.Enabled)
	return n
}

// Name returns the notifier name.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Enabled reports whether the notifier is on and has a URL.
func (n *WebhookNotifier) Enabled() bool {
	return n.enabled.Load() && n.url != ""
}

// SetEnabled turns the notifier on or off at runtime.
func (n *WebhookNotifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// Send waits for the rate limiter, then posts note. A disabled notifier
// returns nil without a request.
func (n *WebhookNotifier) Send(ctx context.Context, note *Notification) error {
	if !n.Enabled() {
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limit: %w", err)
	}

	payload := WebhookPayload{
		DeliveryID:   uuid.NewString(),
		EventType:    string(note.Kind),
		Source:       "appguard",
		Timestamp:    time.Now().UTC(),
		Notification: note,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header = n.header.Clone()
	req.Header.Set(DeliveryHeader, payload.DeliveryID)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
