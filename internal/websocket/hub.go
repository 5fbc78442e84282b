// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package websocket

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/metrics"
)

// Message types for WebSocket communication
const (
	MessageTypeLogSnapshot = "log_snapshot"
	MessageTypeThreatAlert = "threat_alert"
	MessageTypeScanResult  = "scan_result"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"

	// MessageTypeResync asks for the join message again, e.g. after a
	// dashboard notices a gap in log_snapshot revisions.
	MessageTypeResync = "resync"
)

const broadcastQueueSize = 256

// Message is the JSON frame exchanged with dashboards.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// JoinFunc builds the message a newly registered client receives first.
type JoinFunc func() Message

// Hub tracks connected dashboards and fans broadcasts out to them in
// connection order. Only RunWithContext mutates the client set.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan Message

	mu      sync.RWMutex
	clients map[*Client]struct{}

	onJoin JoinFunc
}

// NewHub returns a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan Message, broadcastQueueSize),
		clients:    make(map[*Client]struct{}),
	}
}

// OnJoin sets the message sent to every client as it registers. It must be
// called before RunWithContext.
func (h *Hub) OnJoin(fn JoinFunc) {
	h.onJoin = fn
}

// RunWithContext serves registrations and broadcasts until ctx ends, then
// disconnects every client and returns ctx.Err().
//
// Pending registrations are handled before the next broadcast, so a client
// that registered before a broadcast was queued always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return h.shutdown(ctx)
		}
		if h.handleLifecycle() {
			continue
		}

		select {
		case <-ctx.Done():
			return h.shutdown(ctx)
		case c := <-h.Register:
			h.add(c)
		case c := <-h.Unregister:
			h.remove(c)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// handleLifecycle processes one waiting register or unregister, if any.
func (h *Hub) handleLifecycle() bool {
	select {
	case c := <-h.Register:
		h.add(c)
	case c := <-h.Unregister:
		h.remove(c)
	default:
		return false
	}
	return true
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logging.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("Dashboard connected")

	if h.onJoin != nil {
		c.reply(h.onJoin())
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		h.dropLocked(c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.WSConnections.Set(float64(n))
		logging.Info().Uint64("client_id", c.id).Int("total_clients", n).Msg("Dashboard disconnected")
	}
}

// dropLocked forgets c and closes its queue, which ends its write pump.
func (h *Hub) dropLocked(c *Client) {
	delete(h.clients, c)
	c.close()
}

// orderedLocked returns the clients sorted by connection order.
func (h *Hub) orderedLocked() []*Client {
	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Client) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return out
}

// fanOut queues msg for every client. A client with a full queue is
// disconnected.
func (h *Hub) fanOut(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	slow := 0
	for _, c := range h.orderedLocked() {
		if !c.enqueue(msg) {
			h.dropLocked(c)
			slow++
		}
	}
	if slow > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
		logging.Warn().Int("clients", slow).Str("message_type", msg.Type).Msg("Disconnected slow dashboards")
	}
}

func (h *Hub) shutdown(ctx context.Context) error {
	h.mu.Lock()
	closed := len(h.clients)
	for _, c := range h.orderedLocked() {
		h.dropLocked(c)
	}
	h.mu.Unlock()
	metrics.WSConnections.Set(0)

	reason := "canceled"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = "deadline"
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", closed).
		Msg("WebSocket hub stopped")
	return ctx.Err()
}

// BroadcastJSON queues a message for every connected client. It never
// blocks; when the hub queue is full the message is dropped.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", messageType).Msg("Broadcast queue full, dropping message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
