// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Memory {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewMemory(ctx, 0)
}

func TestCacheBasicOperations(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "key1", []byte("value1"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok, err := c.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Error("expected key1 to exist")
	}
	if string(value) != "value1" {
		t.Errorf("expected value1, got %s", value)
	}

	_, ok, _ = c.Get(ctx, "key2")
	if ok {
		t.Error("expected key2 to not exist")
	}
}

func TestCacheExpiredGetReturnsAbsentAndPurges(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "key1", []byte("value1"), 50*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok, _ := c.Get(ctx, "key1"); !ok {
		t.Error("expected key1 to exist immediately after set")
	}

	time.Sleep(80 * time.Millisecond)

	if _, ok, _ := c.Get(ctx, "key1"); ok {
		t.Error("expected key1 to be expired")
	}

	// The expired read must have removed the stale entry.
	if n := c.Len(); n != 0 {
		t.Errorf("expected 0 entries after expired read, got %d", n)
	}
}

func TestCacheSetResetsTTL(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "key1", []byte("v1"), 50*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	_ = c.Set(ctx, "key1", []byte("v2"), time.Minute)
	time.Sleep(40 * time.Millisecond)

	value, ok, _ := c.Get(ctx, "key1")
	if !ok {
		t.Fatal("expected key1 to survive: second Set reset the TTL")
	}
	if string(value) != "v2" {
		t.Errorf("expected v2, got %s", value)
	}
}

func TestCacheDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "key1", []byte("value1"), time.Minute)
	if err := c.Delete(ctx, "key1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, ok, _ := c.Get(ctx, "key1"); ok {
		t.Error("expected key1 to be deleted")
	}

	// Deleting an absent key is not an error.
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of absent key returned error: %v", err)
	}
}

func TestCacheClear(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = c.Set(ctx, fmt.Sprintf("key%d", i), []byte("v"), time.Minute)
	}

	c.Clear()

	if n := c.Len(); n != 0 {
		t.Errorf("expected empty cache after Clear, got %d entries", n)
	}
}

func TestCacheStats(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "key1", []byte("value1"), time.Minute)
	c.Get(ctx, "key1") // hit
	c.Get(ctx, "key2") // miss
	c.Get(ctx, "key1") // hit

	stats := c.GetStats()
	if stats.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}

	hitRate := c.HitRate()
	expected := 66.66666666666667
	if hitRate < expected-0.01 || hitRate > expected+0.01 {
		t.Errorf("expected hit rate around %.2f%%, got %.2f%%", expected, hitRate)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", n%3)
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, key, []byte(fmt.Sprintf("v%d-%d", n, j)), time.Minute)
				c.Get(ctx, key)
				if j%10 == 0 {
					_ = c.Delete(ctx, key)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestKeyDeterministicAndPrefixed(t *testing.T) {
	k1 := Key("geocode", "Miami, FL")
	k2 := Key("geocode", "Miami, FL")
	if k1 != k2 {
		t.Errorf("expected identical keys, got %q and %q", k1, k2)
	}
	if !strings.HasPrefix(k1, "geocode:") {
		t.Errorf("expected kind prefix, got %q", k1)
	}

	if Key("geocode", "Miami, FL") == Key("extract", "Miami, FL") {
		t.Error("expected different kinds to produce different keys")
	}
	if Key("geocode", "Miami, FL") == Key("geocode", "Boston, MA") {
		t.Error("expected different inputs to produce different keys")
	}
}

func TestSweepUsesConfiguredInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	c := NewMemory(ctx, 10*time.Millisecond)

	if err := c.Set(ctx, "k", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}

	// An unread expired entry is reclaimed by the sweep alone; at the
	// package default interval this would take minutes.
	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweep never ran at the configured interval")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
