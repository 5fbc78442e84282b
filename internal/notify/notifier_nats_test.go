// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

func startTestServer(t *testing.T, jetStream bool) *EmbeddedServer {
	t.Helper()
	srv, err := NewEmbeddedServer(EmbeddedServerConfig{
		Host:      "127.0.0.1",
		Port:      -1, // random port
		JetStream: jetStream,
		StoreDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func TestNATSNotifier_Publish(t *testing.T) {
	t.Parallel()

	srv := startTestServer(t, false)
	if !srv.IsRunning() {
		t.Fatal("embedded server not running")
	}

	sub, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	msgs := make(chan *nats.Msg, 4)
	s, err := sub.ChanSubscribe("appguard.notifications.>", msgs)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Unsubscribe() }()
	if err := sub.Flush(); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultNATSConfig()
	n, err := NewNATSNotifier(context.Background(), cfg, srv.ClientURL())
	if err != nil {
		t.Fatalf("NewNATSNotifier() error = %v", err)
	}
	defer n.Close()

	note := ThreatNotification("Flashlight")
	if err := n.Send(context.Background(), note); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	select {
	case msg := <-msgs:
		if msg.Subject != "appguard.notifications.threat_detected" {
			t.Errorf("subject = %q", msg.Subject)
		}
		if msg.Header.Get(nats.MsgIdHdr) != note.ID {
			t.Errorf("Nats-Msg-Id = %q, want %q", msg.Header.Get(nats.MsgIdHdr), note.ID)
		}
		var got Notification
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.AppName != "Flashlight" || got.Kind != KindThreatDetected {
			t.Errorf("received = %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNATSNotifier_JetStream(t *testing.T) {
	t.Parallel()

	srv := startTestServer(t, true)

	cfg := DefaultNATSConfig()
	cfg.JetStream = true
	ctx := context.Background()

	n, err := NewNATSNotifier(ctx, cfg, srv.ClientURL())
	if err != nil {
		t.Fatalf("NewNATSNotifier() error = %v", err)
	}
	defer n.Close()

	if err := n.Send(ctx, ScanResultNotification("Notes", false, 0.1)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	defer nc.Close()
	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatal(err)
	}
	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.State.Msgs != 1 {
		t.Errorf("stream holds %d messages, want 1", info.State.Msgs)
	}
}

func TestNATSNotifier_Closed(t *testing.T) {
	t.Parallel()

	srv := startTestServer(t, false)
	n, err := NewNATSNotifier(context.Background(), DefaultNATSConfig(), srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}

	if !n.Enabled() {
		t.Error("Enabled() = false before Close")
	}
	if err := n.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if n.Enabled() {
		t.Error("Enabled() = true after Close")
	}
	if err := n.Send(context.Background(), ThreatNotification("App")); !errors.Is(err, ErrNotifierClosed) {
		t.Errorf("Send() after Close error = %v, want ErrNotifierClosed", err)
	}
	if err := n.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
