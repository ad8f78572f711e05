// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/Vagishmaurya/disaster-management/internal/logging"
	"github.com/Vagishmaurya/disaster-management/internal/websocket"
)

// Feed is a client for the real-time endpoint. It applies the debounce
// window advertised in the server's welcome frame: incoming frames are
// coalesced per topic through a Dispatcher, and room joins and leaves are
// settled through a Membership before they reach the wire.
type Feed struct {
	conn       *gws.Conn
	writeMu    sync.Mutex
	dispatcher *Dispatcher
	membership *Membership

	clientID uint64
	window   time.Duration

	closeOnce sync.Once
	done      chan struct{}

	errMu   sync.Mutex
	readErr error
}

// DialFeed connects to the real-time endpoint and consumes the welcome
// frame. The returned Feed is already reading; register handlers with On
// and drive room membership with Join and Leave.
func DialFeed(ctx context.Context, url string) (*Feed, error) {
	conn, resp, err := gws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	var welcome websocket.Message
	if err := conn.ReadJSON(&welcome); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read welcome frame: %w", err)
	}
	if welcome.Type != websocket.MessageTypeAnnouncement {
		_ = conn.Close()
		return nil, fmt.Errorf("unexpected first frame type %q", welcome.Type)
	}

	f := &Feed{
		conn:   conn,
		window: DefaultWindow,
		done:   make(chan struct{}),
	}
	if data, ok := welcome.Data.(map[string]interface{}); ok {
		if ms, ok := data["debounce_window_ms"].(float64); ok && ms > 0 {
			f.window = time.Duration(ms) * time.Millisecond
		}
		if id, ok := data["client_id"].(float64); ok {
			f.clientID = uint64(id)
		}
	}
	f.dispatcher = New(f.window, nil)
	f.membership = NewMembership(f.window, nil, EmitterFunc{
		Join:  func(id string) { f.writeControl(websocket.MessageTypeJoinRoom, id) },
		Leave: func(id string) { f.writeControl(websocket.MessageTypeLeaveRoom, id) },
	})

	go f.readLoop()
	return f, nil
}

// ClientID returns the server-assigned connection ID.
func (f *Feed) ClientID() uint64 { return f.clientID }

// Window returns the debounce window in effect for this connection.
func (f *Feed) Window() time.Duration { return f.window }

// RoomTopic names the dispatch topic for a room-scoped message type on one
// disaster.
func RoomTopic(messageType, disasterID string) string {
	return messageType + ":" + websocket.RoomForDisaster(disasterID)
}

// On registers a debounced handler. Use the message type as the topic for
// global broadcasts, or RoomTopic for room-scoped messages. The handler
// receives a websocket.Message.
func (f *Feed) On(topic string, h Handler) (off func()) {
	return f.dispatcher.On(topic, h)
}

// Join requests membership in a disaster's room. Rapid Join/Leave toggles
// within the window collapse before anything is sent.
func (f *Feed) Join(disasterID string) { f.membership.Join(disasterID) }

// Leave retracts membership in a disaster's room.
func (f *Feed) Leave(disasterID string) { f.membership.Leave(disasterID) }

// Done is closed when the read loop exits.
func (f *Feed) Done() <-chan struct{} { return f.done }

// Err returns the read loop's terminal error, if any. Valid after Done is
// closed.
func (f *Feed) Err() error {
	f.errMu.Lock()
	defer f.errMu.Unlock()
	return f.readErr
}

// Close tears down the connection. Pending debounced payloads are dropped.
func (f *Feed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		f.writeMu.Lock()
		_ = f.conn.WriteControl(gws.CloseMessage,
			gws.FormatCloseMessage(gws.CloseNormalClosure, ""), time.Now().Add(time.Second))
		f.writeMu.Unlock()
		err = f.conn.Close()
	})
	return err
}

func (f *Feed) writeControl(messageType, disasterID string) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	if err := f.conn.WriteJSON(websocket.Message{Type: messageType, Data: disasterID}); err != nil {
		logging.Warn().Err(err).Str("type", messageType).Msg("feed control write failed")
	}
}

func (f *Feed) readLoop() {
	defer close(f.done)
	for {
		var msg websocket.Message
		if err := f.conn.ReadJSON(&msg); err != nil {
			if !gws.IsCloseError(err, gws.CloseNormalClosure, gws.CloseGoingAway) {
				f.errMu.Lock()
				f.readErr = err
				f.errMu.Unlock()
			}
			return
		}
		f.dispatcher.Dispatch(topicFor(msg), msg)
	}
}

// topicFor scopes room messages to their room so bursts on different
// disasters never coalesce with each other.
func topicFor(msg websocket.Message) string {
	if msg.Room != "" {
		return msg.Type + ":" + msg.Room
	}
	return msg.Type
}
