// SPDX-License-Identifier: MIT

// Package views increments lifetime view counters, deduplicating replays
// from the same viewer fingerprint within a cool-down window.
package views

import (
	"context"
	"sync"
	"time"
)

// DedupStore remembers the last counted view per (channel, fingerprint)
// and atomically claims the next one. Claim returns true when no entry
// exists or the existing entry is older than ttl; in that case the entry
// is replaced and the caller must count the view.
type DedupStore interface {
	Claim(ctx context.Context, channelID, fingerprint string, now time.Time, ttl time.Duration) (bool, error)
	Close() error
}

type dedupKey struct {
	channelID   string
	fingerprint string
}

// MemoryDedup is the in-memory default. Entries are short-lived and
// rebuildable, so losing them on restart is acceptable.
type MemoryDedup struct {
	mu      sync.Mutex
	entries map[dedupKey]time.Time
}

// NewMemoryDedup creates an empty in-memory dedup store.
func NewMemoryDedup() *MemoryDedup {
	return &MemoryDedup{entries: make(map[dedupKey]time.Time)}
}

// Claim implements DedupStore.
func (m *MemoryDedup) Claim(_ context.Context, channelID, fingerprint string, now time.Time, ttl time.Duration) (bool, error) {
	k := dedupKey{channelID: channelID, fingerprint: fingerprint}

	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.entries[k]; ok && now.Sub(last) < ttl {
		return false, nil
	}
	m.entries[k] = now
	return true, nil
}

// Sweep drops entries older than ttl so the map does not grow unbounded.
func (m *MemoryDedup) Sweep(now time.Time, ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, last := range m.entries {
		if now.Sub(last) >= ttl {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// Size reports the current number of dedup entries.
func (m *MemoryDedup) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryDedup) Close() error { return nil }
