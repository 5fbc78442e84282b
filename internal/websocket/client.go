// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/appguard/internal/logging"
	"github.com/tomtom215/appguard/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Dashboards only send ping and resync requests.
	maxMessageSize = 4 * 1024

	sendQueueSize = 64
)

// nextClientID orders clients for broadcast.
var nextClientID atomic.Uint64

// Client is one dashboard connection. The client owns conn and is the only
// goroutine pair touching it. Both the hub and the read pump queue on send;
// mu guards send against the hub closing it.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn

	mu   sync.Mutex
	send chan Message
	gone chan struct{}
}

// NewClient wraps conn. It must be registered with the hub before Start.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   nextClientID.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendQueueSize),
		gone: make(chan struct{}),
	}
}

// ID returns the client's connection sequence number.
func (c *Client) ID() uint64 {
	return c.id
}

// Start runs the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// enqueue offers msg without blocking. It reports false when the queue is
// full or the hub has already dropped the client.
func (c *Client) enqueue(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.gone:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close marks the client dropped and closes send, which ends the write
// pump. Only the hub calls it; a second call is a no-op.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.gone:
		return
	default:
	}
	close(c.gone)
	close(c.send)
}

// reply queues msg for this client only. A full queue drops the reply; the
// hub disconnects the client on its next broadcast anyway.
func (c *Client) reply(msg Message) {
	if !c.enqueue(msg) {
		metrics.WSMessagesDropped.Inc()
	}
}

// handle answers one inbound message. Unknown types are ignored.
func (c *Client) handle(msg Message) {
	switch msg.Type {
	case MessageTypePing:
		c.reply(Message{Type: MessageTypePong})
	case MessageTypeResync:
		if c.hub.onJoin != nil {
			c.reply(c.hub.onJoin())
		}
	default:
		logging.Debug().Uint64("client_id", c.id).Str("message_type", msg.Type).Msg("ignoring websocket message")
	}
}

func (c *Client) readPump() {
	defer func() {
		// A dropped client is already gone from the hub, which may have
		// stopped reading Unregister.
		select {
		case c.hub.Unregister <- c:
		case <-c.gone:
		}
		_ = c.conn.Close()
	}()

	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(extend)
	if err := extend(""); err != nil {
		logging.Error().Err(err).Uint64("client_id", c.id).Msg("failed to set read deadline")
		return
	}

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err == nil {
			c.handle(msg)
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			logging.Warn().Err(err).Uint64("client_id", c.id).Msg("dashboard connection closed unexpectedly")
		}
		return
	}
}

// write sets the write deadline and runs fn. A false result ends the pump.
func (c *Client) write(fn func() error) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		logging.Error().Err(err).Uint64("client_id", c.id).Msg("failed to set write deadline")
		return false
	}
	if err := fn(); err != nil {
		logging.Debug().Err(err).Uint64("client_id", c.id).Msg("websocket write failed")
		return false
	}
	return true
}

func (c *Client) writePump() {
	keepalive := time.NewTicker(pingPeriod)
	defer func() {
		keepalive.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Unregistered by the hub.
				c.write(func() error {
					return c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				})
				return
			}
			if !c.write(func() error { return c.conn.WriteJSON(msg) }) {
				return
			}

		case <-keepalive.C:
			if !c.write(func() error { return c.conn.WriteMessage(websocket.PingMessage, nil) }) {
				return
			}
		}
	}
}
