// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

// Package cache provides a thread-safe TTL key-value cache used by the
// enrichment pipeline. The cache is strictly best-effort: callers treat a
// Get error as a miss and ignore Set/Delete errors, so a cache outage
// degrades to "always miss" and never aborts an enrichment.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/Vagishmaurya/disaster-management/internal/metrics"
)

// Store is the cache contract consumed by the enrichment pipeline.
// Implementations must be safe for concurrent use. Get must never return an
// expired value: a read past the entry's expiry is reported as absent and
// the stale entry purged.
type Store interface {
	// Get returns the cached value for key, or ok=false if absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, overwriting unconditionally and resetting
	// the TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key builds a deterministic cache key from an enrichment kind and its input.
// The input is digested so arbitrarily long descriptions and URLs produce
// compact, collision-resistant keys.
func Key(kind, input string) string {
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%s:%x", kind, hash[:16])
}

// entry is a cached item with its expiry.
type entry struct {
	data      []byte
	expiresAt time.Time
}

// Stats is a snapshot of cache performance counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// Memory is an in-process Store with per-entry TTLs. Expired entries are
// purged lazily on read; a background sweep reclaims space for keys that are
// never read again. The sweep is needed only for space reclamation, never
// for correctness.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	sweepEvery time.Duration

	statsMu sync.Mutex
	stats   Stats
}

// defaultSweepInterval is how often the background cleanup removes expired
// entries when no interval is configured.
const defaultSweepInterval = 5 * time.Minute

// NewMemory creates a Memory cache. The background sweep goroutine runs
// every sweepEvery until ctx is canceled; a non-positive interval falls back
// to defaultSweepInterval.
func NewMemory(ctx context.Context, sweepEvery time.Duration) *Memory {
	if sweepEvery <= 0 {
		sweepEvery = defaultSweepInterval
	}
	m := &Memory{
		entries:    make(map[string]entry),
		sweepEvery: sweepEvery,
		stats:      Stats{LastCleanup: time.Now()},
	}

	go m.sweepLoop(ctx)

	return m
}

// Get returns the cached value for key. An expired entry is removed and
// reported as a miss; a caller can never observe an expired value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		m.recordMiss()
		return nil, false, nil
	}

	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have refreshed
		// the entry between the RUnlock above and here.
		if cur, ok := m.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(m.entries, key)
			m.recordEviction()
		}
		m.mu.Unlock()
		m.recordMiss()
		return nil, false, nil
	}

	m.recordHit()
	return e.data, true, nil
}

// Set stores value under key with the given TTL, overwriting any prior entry.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = entry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
	total := int64(len(m.entries))
	m.mu.Unlock()

	m.statsMu.Lock()
	m.stats.TotalKeys = total
	m.statsMu.Unlock()
	metrics.CacheEntries.Set(float64(total))

	return nil
}

// Delete removes key from the cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	m.recordEviction()
	return nil
}

// Clear removes all entries in a single operation.
func (m *Memory) Clear() {
	m.mu.Lock()
	evictions := int64(len(m.entries))
	m.entries = make(map[string]entry)
	m.mu.Unlock()

	m.statsMu.Lock()
	m.stats.Evictions += evictions
	m.stats.TotalKeys = 0
	m.statsMu.Unlock()
	metrics.CacheEvictions.Add(float64(evictions))
	metrics.CacheEntries.Set(0)
}

// Len returns the current number of entries, including any not yet swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// GetStats returns a snapshot of the cache counters.
func (m *Memory) GetStats() Stats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

// HitRate returns the cache hit rate as a percentage.
func (m *Memory) HitRate() float64 {
	stats := m.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// sweepLoop periodically removes expired entries until ctx is canceled.
func (m *Memory) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep removes all expired entries.
func (m *Memory) sweep() {
	now := time.Now()

	m.mu.Lock()
	evictions := int64(0)
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
			evictions++
		}
	}
	total := int64(len(m.entries))
	m.mu.Unlock()

	m.statsMu.Lock()
	m.stats.Evictions += evictions
	m.stats.TotalKeys = total
	m.stats.LastCleanup = now
	m.statsMu.Unlock()
	metrics.CacheEvictions.Add(float64(evictions))
	metrics.CacheEntries.Set(float64(total))
}

func (m *Memory) recordHit() {
	m.statsMu.Lock()
	m.stats.Hits++
	m.statsMu.Unlock()
}

func (m *Memory) recordMiss() {
	m.statsMu.Lock()
	m.stats.Misses++
	m.statsMu.Unlock()
}

func (m *Memory) recordEviction() {
	m.statsMu.Lock()
	m.stats.Evictions++
	m.statsMu.Unlock()
	metrics.CacheEvictions.Inc()
}
