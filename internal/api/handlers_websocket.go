// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package api

import (
	"net/http"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/Vagishmaurya/disaster-management/internal/logging"
	"github.com/Vagishmaurya/disaster-management/internal/websocket"
)

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (s *Server) getUpgrader() gws.Upgrader {
	return gws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      s.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates the Origin header against the configured
// CORS origins. Browser WebSockets always send Origin; an absent header
// means a non-browser client, which is allowed.
func (s *Server) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if s.cfg == nil {
		return true
	}
	for _, allowed := range s.cfg.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// wsWelcome is the first frame sent after upgrade. It advertises the
// debounce window clients are expected to apply to room-scoped topics.
type wsWelcome struct {
	ClientID         uint64 `json:"client_id"`
	DebounceWindowMs int64  `json:"debounce_window_ms"`
}

// HandleWebSocket handles GET /api/ws: upgrades the connection, registers
// the client with the hub, and starts its pumps. Room membership is driven
// by join_disaster / leave_disaster frames from the client.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		rw := NewResponseWriter(w, r)
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "WebSocket service unavailable")
		return
	}

	upgrader := s.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := websocket.NewClient(s.hub, conn)
	client.Send(websocket.MessageTypeAnnouncement, wsWelcome{
		ClientID:         client.ID(),
		DebounceWindowMs: s.cfg.Realtime.DebounceWindow.Milliseconds(),
	})
	s.hub.Register <- client
	client.Start()
}
