// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/appguard/internal/config"
	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/notify"
	ws "github.com/tomtom215/appguard/internal/websocket"
)

// NotifyComponents holds the notification dispatcher and the NATS pieces
// that need explicit shutdown.
type NotifyComponents struct {
	Dispatcher *notify.Dispatcher

	natsServer   *notify.EmbeddedServer
	natsNotifier *notify.NATSNotifier
}

// InitNotify builds the dispatcher and registers every enabled channel.
// The WebSocket channel is always registered; it is a no-op without clients.
func InitNotify(ctx context.Context, cfg config.NotifyConfig, hub *ws.Hub) (*NotifyComponents, error) {
	nc := &NotifyComponents{Dispatcher: notify.NewDispatcher(cfg.Timeout)}

	nc.Dispatcher.Register(notify.NewLogNotifier(cfg.Log.Enabled))
	nc.Dispatcher.Register(ws.NewAlertNotifier(hub))

	if cfg.Webhook.Enabled {
		nc.Dispatcher.Register(notify.NewWebhookNotifier(cfg.Webhook))
		logging.Info().Str("url", cfg.Webhook.WebhookURL).Msg("Webhook notifications enabled")
	}

	if cfg.NATS.Enabled {
		if err := nc.initNATS(ctx, cfg.NATS); err != nil {
			nc.Shutdown(context.Background())
			return nil, err
		}
	}

	logging.Info().Strs("channels", nc.Dispatcher.Notifiers()).Msg("Notification dispatcher initialized")
	return nc, nil
}

func (nc *NotifyComponents) initNATS(ctx context.Context, cfg notify.NATSConfig) error {
	url := cfg.URL
	if cfg.Embedded {
		srv, err := notify.NewEmbeddedServer(cfg.Server)
		if err != nil {
			return fmt.Errorf("start embedded NATS server: %w", err)
		}
		nc.natsServer = srv
		url = srv.ClientURL()
		logging.Info().Str("url", url).Bool("jetstream", cfg.Server.JetStream).Msg("Embedded NATS server started")
	}

	notifier, err := notify.NewNATSNotifier(ctx, cfg, url)
	if err != nil {
		return fmt.Errorf("connect NATS notifier: %w", err)
	}
	nc.natsNotifier = notifier
	nc.Dispatcher.Register(notifier)

	logging.Info().Str("subject", cfg.Subject).Bool("jetstream", cfg.JetStream).Msg("NATS notifications enabled")
	return nil
}

// Shutdown waits for in-flight deliveries, then closes the NATS connection
// and the embedded server.
func (nc *NotifyComponents) Shutdown(ctx context.Context) {
	if err := nc.Dispatcher.Wait(ctx); err != nil {
		logging.Warn().Err(err).Msg("Notification deliveries still in flight at shutdown")
	}
	if nc.natsNotifier != nil {
		if err := nc.natsNotifier.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing NATS notifier")
		}
	}
	if nc.natsServer != nil {
		if err := nc.natsServer.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down embedded NATS server")
		}
	}
}
