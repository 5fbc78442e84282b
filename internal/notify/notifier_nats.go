// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/appguard/internal/logging"
)

// NATSConfig configures the NATS notifier.
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`

	// Subject is the prefix; the notification kind is appended,
	// e.g. appguard.notifications.threat_detected.
	Subject string `koanf:"subject"`

	// JetStream publishes into a stream and waits for the ack instead of
	// fire-and-forget core NATS.
	JetStream  bool   `koanf:"jetstream"`
	StreamName string `koanf:"stream_name"`

	// Embedded starts an in-process NATS server; URL is then ignored.
	Embedded bool                 `koanf:"embedded"`
	Server   EmbeddedServerConfig `koanf:"server"`
}

// DefaultNATSConfig returns the default NATS notifier configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:        nats.DefaultURL,
		Subject:    "appguard.notifications",
		StreamName: "APPGUARD_NOTIFICATIONS",
		Server:     DefaultEmbeddedServerConfig(),
	}
}

// ErrNotifierClosed is returned by Send after Close.
var ErrNotifierClosed = errors.New("notifier is closed")

// NATSNotifier publishes notifications as JSON messages.
type NATSNotifier struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	subject string

	mu     sync.RWMutex
	closed bool
}

// NewNATSNotifier connects to url. The connection retries in the
// background, so an unreachable server does not fail construction.
func NewNATSNotifier(ctx context.Context, cfg NATSConfig, url string) (*NATSNotifier, error) {
	if cfg.Subject == "" {
		cfg.Subject = "appguard.notifications"
	}

	nc, err := nats.Connect(url,
		nats.Name("appguard"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS notifier disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.Info().Str("url", c.ConnectedUrl()).Msg("NATS notifier reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	n := &NATSNotifier{nc: nc, subject: cfg.Subject}

	if cfg.JetStream {
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("create JetStream context: %w", err)
		}
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     cfg.StreamName,
			Subjects: []string{cfg.Subject + ".>"},
			MaxAge:   7 * 24 * time.Hour,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("create notification stream: %w", err)
		}
		n.js = js
	}

	logging.Info().
		Str("url", url).
		Str("subject", cfg.Subject).
		Bool("jetstream", cfg.JetStream).
		Msg("NATS notifier connected")
	return n, nil
}

// Name returns the notifier name.
func (n *NATSNotifier) Name() string {
	return "nats"
}

// Enabled returns whether the notifier can still publish.
func (n *NATSNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return !n.closed
}

// Subject returns the subject a notification of kind k is published on.
func (n *NATSNotifier) Subject(k Kind) string {
	return n.subject + "." + string(k)
}

// Send publishes the notification.
func (n *NATSNotifier) Send(ctx context.Context, note *Notification) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNotifierClosed
	}

	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	msg := nats.NewMsg(n.Subject(note.Kind))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, note.ID)

	if n.js != nil {
		if _, err := n.js.PublishMsg(ctx, msg); err != nil {
			return fmt.Errorf("publish to JetStream: %w", err)
		}
		return nil
	}

	if err := n.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}
	return nil
}

// Close drains pending publishes and closes the connection.
func (n *NATSNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	n.mu.Unlock()

	if err := n.nc.Drain(); err != nil {
		n.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
