// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package dispatch

import (
	"sync"
	"time"

	"github.com/Vagishmaurya/disaster-management/internal/logging"
)

// DefaultWindow is the debounce window applied to every topic.
const DefaultWindow = 300 * time.Millisecond

// Handler consumes the latest payload for a topic.
type Handler func(payload any)

type pendingTopic struct {
	payload any
	timer   Timer
	seq     uint64
}

// Dispatcher debounces per-topic message bursts. Each topic holds at most
// one pending payload: a new dispatch within the window replaces the payload
// and restarts the window, so a burst settles to a single trailing flush
// with the freshest data once the topic goes quiet.
type Dispatcher struct {
	mu       sync.Mutex
	window   time.Duration
	clock    Clock
	handlers map[string][]*registration
	pending  map[string]*pendingTopic
	nextID   uint64
}

type registration struct {
	id uint64
	fn Handler
}

// New creates a Dispatcher. A non-positive window falls back to
// DefaultWindow; a nil clock falls back to the real one.
func New(window time.Duration, clock Clock) *Dispatcher {
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Dispatcher{
		window:   window,
		clock:    clock,
		handlers: make(map[string][]*registration),
		pending:  make(map[string]*pendingTopic),
	}
}

// On registers a handler for a topic and returns its unsubscribe func.
func (d *Dispatcher) On(topic string, h Handler) (off func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	reg := &registration{id: d.nextID, fn: h}
	d.handlers[topic] = append(d.handlers[topic], reg)

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		regs := d.handlers[topic]
		for i, r := range regs {
			if r.id == reg.id {
				d.handlers[topic] = append(regs[:i:i], regs[i+1:]...)
				break
			}
		}
		if len(d.handlers[topic]) == 0 {
			delete(d.handlers, topic)
		}
	}
}

// Off removes every handler for a topic and discards its pending payload.
func (d *Dispatcher) Off(topic string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.handlers, topic)
	if p, ok := d.pending[topic]; ok {
		p.timer.Stop()
		delete(d.pending, topic)
	}
}

// Dispatch feeds one message into the debouncer. The first message on a
// quiet topic starts the window; each message arriving inside the window
// replaces the pending payload and restarts the window. Handlers run once
// with the last payload seen, a full window after the final message.
func (d *Dispatcher) Dispatch(topic string, payload any) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[topic]
	if !ok {
		p = &pendingTopic{}
		d.pending[topic] = p
	} else {
		p.timer.Stop()
		p.seq++
	}
	p.payload = payload
	seq := p.seq
	p.timer = d.clock.AfterFunc(d.window, func() { d.flush(topic, seq) })
}

// flush delivers the pending payload for a topic to its handlers. The seq
// check discards a stale timer that fired while its restart was in flight.
func (d *Dispatcher) flush(topic string, seq uint64) {
	d.mu.Lock()
	p, ok := d.pending[topic]
	if !ok || p.seq != seq {
		d.mu.Unlock()
		return
	}
	delete(d.pending, topic)
	payload := p.payload
	regs := make([]*registration, len(d.handlers[topic]))
	copy(regs, d.handlers[topic])
	d.mu.Unlock()

	for _, reg := range regs {
		invoke(topic, reg.fn, payload)
	}
}

// invoke runs one handler with panic isolation: a failing handler never
// takes down its siblings or the dispatcher.
func invoke(topic string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("topic", topic).
				Interface("panic", r).
				Msg("dispatch handler panicked")
		}
	}()
	h(payload)
}

// PendingTopics reports how many topics currently hold a pending payload.
func (d *Dispatcher) PendingTopics() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
