// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

// Package websocket implements the room-scoped real-time fan-out layer.
// Clients join per-disaster rooms; mutations publish room-scoped messages
// that reach only the room's members, while a small set of global topics
// reaches every connected client.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/Vagishmaurya/disaster-management/internal/logging"
	"github.com/Vagishmaurya/disaster-management/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types exchanged with clients.
const (
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeJoinRoom     = "join_disaster"
	MessageTypeLeaveRoom    = "leave_disaster"
	MessageTypeDisaster     = "disaster_updated"
	MessageTypeDisasterGone = "disaster_deleted"
	MessageTypeReport       = "report_created"
	MessageTypeSocialMedia  = "social_media_updated"
	MessageTypeResources    = "resources_updated"
	MessageTypeAnnouncement = "announcement"
)

// RoomForDisaster names the room carrying updates for one disaster.
func RoomForDisaster(disasterID string) string {
	return "disaster_" + disasterID
}

// Message is one WebSocket frame. Room is set on room-scoped messages and
// empty on global broadcasts and control frames.
type Message struct {
	Type string      `json:"type"`
	Room string      `json:"room,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// membership is a join or leave request routed through the hub loop.
type membership struct {
	client *Client
	room   string
	join   bool
}

// Hub maintains the set of active clients, their room subscriptions, and
// fans out room-scoped and global messages.
type Hub struct {
	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	broadcast  chan Message
	publish    chan Message
	Register   chan *Client
	Unregister chan *Client
	membership chan membership
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan Message, 256),
		publish:    make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		membership: make(chan membership, 64),
	}
}

// RunWithContext runs the hub loop until the context is canceled. Designed
// for suture supervision: on cancellation all clients are closed and the
// context error is returned.
//
// DETERMINISM: priority-based selection keeps behavior predictable when
// multiple channels are ready. Go's select picks randomly among ready cases,
// so lifecycle and membership events are drained before any fan-out:
// - Priority 1: Context cancellation (shutdown)
// - Priority 2: Client lifecycle and room membership
// - Priority 3: Room publishes and global broadcasts
// This guarantees a join processed before a publish is visible to that
// publish, and a leave processed before a publish suppresses delivery.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown check (non-blocking).
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: lifecycle and membership (non-blocking).
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		case m := <-h.membership:
			h.applyMembership(m)
			continue
		default:
		}

		// Priority 3: fan-out, or wait for any event (blocking).
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case m := <-h.membership:
			h.applyMembership(m)
		case msg := <-h.publish:
			h.deliverToRoom(msg)
		case msg := <-h.broadcast:
			h.deliverToAll(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for room, members := range h.rooms {
		if members[client] {
			delete(members, client)
			metrics.WebSocketRoomMembers.WithLabelValues(room).Set(float64(len(members)))
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	client.closeSend()
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client disconnected")
}

func (h *Hub) applyMembership(m membership) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Ignore membership changes from clients already unregistered.
	if !h.clients[m.client] {
		return
	}
	if m.join {
		members, ok := h.rooms[m.room]
		if !ok {
			members = make(map[*Client]bool)
			h.rooms[m.room] = members
		}
		members[m.client] = true
		metrics.WebSocketRoomMembers.WithLabelValues(m.room).Set(float64(len(members)))
		logging.Debug().Uint64("client_id", m.client.id).Str("room", m.room).Int("members", len(members)).Msg("client joined room")
		return
	}
	if members, ok := h.rooms[m.room]; ok {
		delete(members, m.client)
		metrics.WebSocketRoomMembers.WithLabelValues(m.room).Set(float64(len(members)))
		if len(members) == 0 {
			delete(h.rooms, m.room)
		}
		logging.Debug().Uint64("client_id", m.client.id).Str("room", m.room).Msg("client left room")
	}
}

// deliverToRoom fans a message out to the members of its room. An empty or
// unknown room is a no-op, not an error: publishing to a room nobody watches
// is the normal case for quiet disasters.
func (h *Hub) deliverToRoom(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[msg.Room]
	if !ok || len(members) == 0 {
		return
	}
	h.send(sortedClients(members), msg)
}

func (h *Hub) deliverToAll(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}
	h.send(sortedClients(h.clients), msg)
}

// send writes to each client's buffer, dropping clients that cannot keep up.
// Callers hold h.mu.
// DETERMINISM: clients arrive sorted by ID so delivery order is stable.
func (h *Hub) send(clients []*Client, msg Message) {
	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- msg:
		default:
			toRemove = append(toRemove, client)
		}
	}
	metrics.WebSocketMessagesSent.WithLabelValues(msg.Type).Add(float64(len(clients) - len(toRemove)))

	for _, client := range toRemove {
		logging.Warn().Uint64("client_id", client.id).Msg("dropping websocket client with full send buffer")
		metrics.WebSocketClientsDropped.Inc()
		delete(h.clients, client)
		for room, members := range h.rooms {
			if members[client] {
				delete(members, client)
				if len(members) == 0 {
					delete(h.rooms, room)
				}
			}
		}
		client.closeSend()
	}
}

// sortedClients returns the members sorted by client ID for deterministic
// fan-out order.
func sortedClients(members map[*Client]bool) []*Client {
	clients := make([]*Client, 0, len(members))
	for client := range members {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// Publish enqueues a room-scoped message. Non-blocking: if the hub is
// saturated the message is dropped with a warning rather than stalling the
// HTTP request that triggered it.
func (h *Hub) Publish(room, messageType string, data interface{}) {
	msg := Message{Type: messageType, Room: room, Data: data}
	select {
	case h.publish <- msg:
	default:
		logging.Warn().Str("room", room).Str("message_type", messageType).Msg("publish channel full, dropping message")
	}
}

// Broadcast enqueues a message for every connected client regardless of room.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	msg := Message{Type: messageType, Data: data}
	select {
	case h.broadcast <- msg:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of members in a room.
func (h *Hub) RoomCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// closeAllClients closes every connection during shutdown, in ID order.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range sortedClients(h.clients) {
		client.closeSend()
		delete(h.clients, client)
	}
	h.rooms = make(map[string]map[*Client]bool)
	metrics.WebSocketConnections.Set(0)
}
