// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package dispatch

import (
	"sync"
	"time"
)

// Emitter sends a join or leave for one disaster room to the server.
type Emitter interface {
	EmitJoin(disasterID string)
	EmitLeave(disasterID string)
}

// EmitterFunc adapts two funcs into an Emitter.
type EmitterFunc struct {
	Join  func(disasterID string)
	Leave func(disasterID string)
}

func (e EmitterFunc) EmitJoin(id string)  { e.Join(id) }
func (e EmitterFunc) EmitLeave(id string) { e.Leave(id) }

type roomState struct {
	joined  bool // last state emitted to the server
	desired bool
	timer   Timer
	seq     uint64
}

// Membership tracks which disaster rooms the client wants to be in and
// coalesces rapid toggles: each toggle restarts the debounce window, and
// only the desired state that survives a full quiet window is emitted, so a
// join immediately followed by a leave produces no wire traffic at all.
type Membership struct {
	mu      sync.Mutex
	window  time.Duration
	clock   Clock
	emitter Emitter
	rooms   map[string]*roomState
	seq     uint64 // shared across rooms so stale timers never match a recreated state
}

// NewMembership creates a membership tracker with the same defaulting rules
// as New.
func NewMembership(window time.Duration, clock Clock, emitter Emitter) *Membership {
	if window <= 0 {
		window = DefaultWindow
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Membership{
		window:  window,
		clock:   clock,
		emitter: emitter,
		rooms:   make(map[string]*roomState),
	}
}

// Join marks the room as wanted.
func (m *Membership) Join(disasterID string) {
	m.setDesired(disasterID, true)
}

// Leave marks the room as unwanted.
func (m *Membership) Leave(disasterID string) {
	m.setDesired(disasterID, false)
}

func (m *Membership) setDesired(disasterID string, desired bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.rooms[disasterID]
	if !ok {
		st = &roomState{}
		m.rooms[disasterID] = st
	}
	st.desired = desired
	if st.timer != nil {
		st.timer.Stop()
	}
	m.seq++
	seq := m.seq
	st.seq = seq
	st.timer = m.clock.AfterFunc(m.window, func() { m.settle(disasterID, seq) })
}

// settle emits the desired state if it differs from what the server last
// saw. The seq check discards a stale timer that fired while its restart was
// in flight.
func (m *Membership) settle(disasterID string, seq uint64) {
	m.mu.Lock()
	st, ok := m.rooms[disasterID]
	if !ok || st.seq != seq {
		m.mu.Unlock()
		return
	}
	st.timer = nil
	changed := st.desired != st.joined
	desired := st.desired
	if changed {
		st.joined = desired
	}
	if !st.joined {
		delete(m.rooms, disasterID)
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	if desired {
		m.emitter.EmitJoin(disasterID)
	} else {
		m.emitter.EmitLeave(disasterID)
	}
}

// Joined reports whether a join for the room has been emitted and not yet
// retracted.
func (m *Membership) Joined(disasterID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.rooms[disasterID]
	return ok && st.joined
}
