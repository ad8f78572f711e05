// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Vagishmaurya/disaster-management/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64 KB; clients only send small control frames
)

// clientIDCounter generates unique, monotonically increasing client IDs.
// DETERMINISM: stable IDs give the hub a consistent fan-out order.
var clientIDCounter atomic.Uint64

// Client is the middleman between one websocket connection and the hub.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	// sendMu serializes self-sends against the hub closing the channel, so
	// a pong written while the hub drops this client as slow cannot panic.
	sendMu sync.Mutex
	closed bool
}

// NewClient creates a new Client with a unique ID.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// readPump pumps control messages from the websocket connection to the hub.
// Clients drive their own room membership with join_disaster/leave_disaster
// frames carrying the disaster ID as data.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}

		switch msg.Type {
		case MessageTypePing:
			c.trySend(Message{Type: MessageTypePong})
		case MessageTypeJoinRoom:
			if id, ok := msg.Data.(string); ok && id != "" {
				c.hub.membership <- membership{client: c, room: RoomForDisaster(id), join: true}
			}
		case MessageTypeLeaveRoom:
			if id, ok := msg.Data.(string); ok && id != "" {
				c.hub.membership <- membership{client: c, room: RoomForDisaster(id)}
			}
		default:
			logging.Debug().Uint64("client_id", c.id).Str("type", msg.Type).Msg("ignoring unknown client message")
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Msg("failed to write close message")
				}
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send queues a message directly to this client without going through the
// hub. Returns false when the client's buffer is full or the hub has
// already dropped the client.
func (c *Client) Send(messageType string, data interface{}) bool {
	return c.trySend(Message{Type: messageType, Data: data})
}

// trySend queues msg unless the hub has closed the channel.
func (c *Client) trySend(msg Message) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once. Only the hub calls this.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Join subscribes the client to a disaster room from server-side code. The
// usual path is a join_disaster frame from the client itself.
func (c *Client) Join(disasterID string) {
	c.hub.membership <- membership{client: c, room: RoomForDisaster(disasterID), join: true}
}

// Leave unsubscribes the client from a disaster room.
func (c *Client) Leave(disasterID string) {
	c.hub.membership <- membership{client: c, room: RoomForDisaster(disasterID)}
}
