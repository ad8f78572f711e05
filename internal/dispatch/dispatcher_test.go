// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package dispatch

import (
	"sync"
	"testing"
	"time"
)

// fakeClock drives AfterFunc callbacks manually via Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	fn       func()
	stopped  bool
	fired    bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, deadline: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and fires due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.fired && !t.stopped && !t.deadline.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func TestDebounceCoalescesBurst(t *testing.T) {
	clock := newFakeClock()
	d := New(300*time.Millisecond, clock)

	var mu sync.Mutex
	var calls int
	var last any
	d.On("disaster_updated", func(payload any) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		last = payload
	})

	for i := 1; i <= 5; i++ {
		d.Dispatch("disaster_updated", i)
	}
	mu.Lock()
	if calls != 0 {
		t.Fatalf("handler ran before window elapsed: %d", calls)
	}
	mu.Unlock()

	clock.Advance(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if last != 5 {
		t.Errorf("payload = %v, want 5 (freshest)", last)
	}
}

func TestDebounceWindowRestartsOnNewEvent(t *testing.T) {
	clock := newFakeClock()
	d := New(300*time.Millisecond, clock)

	var mu sync.Mutex
	var calls int
	var last any
	d.On("disaster_updated", func(payload any) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		last = payload
	})

	d.Dispatch("disaster_updated", "first")
	clock.Advance(250 * time.Millisecond)
	d.Dispatch("disaster_updated", "second")

	// The first event's deadline has passed, but the second event restarted
	// the window, so nothing may flush yet.
	clock.Advance(100 * time.Millisecond)
	mu.Lock()
	if calls != 0 {
		t.Fatalf("flushed %d time(s) before the restarted window elapsed", calls)
	}
	mu.Unlock()

	clock.Advance(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if last != "second" {
		t.Errorf("payload = %v, want the freshest event", last)
	}
}

func TestTopicsDebounceIndependently(t *testing.T) {
	clock := newFakeClock()
	d := New(300*time.Millisecond, clock)

	var mu sync.Mutex
	got := map[string]any{}
	for _, topic := range []string{"a", "b"} {
		topic := topic
		d.On(topic, func(payload any) {
			mu.Lock()
			defer mu.Unlock()
			got[topic] = payload
		})
	}

	d.Dispatch("a", "first")
	clock.Advance(150 * time.Millisecond)
	d.Dispatch("b", "second")
	clock.Advance(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if got["a"] != "first" {
		t.Errorf("topic a not flushed at its own deadline: %v", got)
	}
	if _, ok := got["b"]; ok {
		t.Errorf("topic b flushed early: %v", got)
	}
}

func TestWindowRestartsAfterFlush(t *testing.T) {
	clock := newFakeClock()
	d := New(300*time.Millisecond, clock)

	var mu sync.Mutex
	var calls int
	d.On("t", func(any) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	d.Dispatch("t", 1)
	clock.Advance(300 * time.Millisecond)
	d.Dispatch("t", 2)
	clock.Advance(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestOffDiscardsPending(t *testing.T) {
	clock := newFakeClock()
	d := New(300*time.Millisecond, clock)

	var calls int
	d.On("t", func(any) { calls++ })

	d.Dispatch("t", 1)
	d.Off("t")
	clock.Advance(300 * time.Millisecond)

	if calls != 0 {
		t.Errorf("calls = %d after Off", calls)
	}
	if d.PendingTopics() != 0 {
		t.Errorf("pending topics = %d", d.PendingTopics())
	}
}

func TestUnsubscribeSingleHandler(t *testing.T) {
	clock := newFakeClock()
	d := New(300*time.Millisecond, clock)

	var first, second int
	off := d.On("t", func(any) { first++ })
	d.On("t", func(any) { second++ })

	off()
	d.Dispatch("t", 1)
	clock.Advance(300 * time.Millisecond)

	if first != 0 {
		t.Errorf("unsubscribed handler ran %d times", first)
	}
	if second != 1 {
		t.Errorf("remaining handler ran %d times, want 1", second)
	}
}

func TestHandlerPanicIsolation(t *testing.T) {
	clock := newFakeClock()
	d := New(300*time.Millisecond, clock)

	var survived bool
	d.On("t", func(any) { panic("handler bug") })
	d.On("t", func(any) { survived = true })

	d.Dispatch("t", 1)
	clock.Advance(300 * time.Millisecond)

	if !survived {
		t.Error("second handler did not run after first panicked")
	}

	// The dispatcher itself must still work.
	var after int
	d.On("u", func(any) { after++ })
	d.Dispatch("u", 1)
	clock.Advance(300 * time.Millisecond)
	if after != 1 {
		t.Errorf("dispatcher broken after panic: calls = %d", after)
	}
}

func TestDefaultWindow(t *testing.T) {
	d := New(0, nil)
	if d.window != DefaultWindow {
		t.Errorf("window = %v, want %v", d.window, DefaultWindow)
	}
}
