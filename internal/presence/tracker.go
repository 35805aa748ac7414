// SPDX-License-Identifier: MIT

// Package presence tracks approximately how many distinct devices are
// currently watching each channel, derived from periodic player heartbeats.
// Counts are approximate by design: entries are lost on restart and reads
// may be one sweep behind.
package presence

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/viewgate/viewgate/internal/log"
	"github.com/viewgate/viewgate/internal/metrics"
)

// DefaultWindow is double the expected 30-60s heartbeat interval so a
// device survives one missed beat.
const DefaultWindow = 120 * time.Second

const maxDeviceIDLen = 128

// shardCount is fixed so heartbeats for different channels rarely contend.
const shardCount = 64

// ValidationError reports a malformed heartbeat. No state is mutated when
// it is returned.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// entryKey identifies at most one presence entry per (channel, device) pair.
type entryKey struct {
	channelID string
	deviceID  string
}

type shard struct {
	mu      sync.RWMutex
	entries map[entryKey]time.Time // value is last-heartbeat instant
}

// Tracker maintains the sliding-window liveness set.
type Tracker struct {
	window time.Duration
	shards [shardCount]*shard
	logger zerolog.Logger
}

// NewTracker creates a tracker with the given liveness window. A
// non-positive window falls back to DefaultWindow.
func NewTracker(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	t := &Tracker{
		window: window,
		logger: xglog.WithComponent("presence"),
	}
	for i := range t.shards {
		t.shards[i] = &shard{entries: make(map[entryKey]time.Time)}
	}
	return t
}

// Window returns the configured liveness window.
func (t *Tracker) Window() time.Duration {
	return t.window
}

func (t *Tracker) shardFor(channelID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(channelID))
	return t.shards[h.Sum32()%shardCount]
}

// Heartbeat upserts the presence entry for (channelID, deviceID) and
// returns the live count for the channel. Re-heartbeating while live only
// refreshes the timestamp; it never double-counts.
func (t *Tracker) Heartbeat(channelID, deviceID string, now time.Time) (int, error) {
	if channelID == "" {
		return 0, &ValidationError{Field: "channel_id", Detail: "must not be empty"}
	}
	if deviceID == "" {
		return 0, &ValidationError{Field: "device_id", Detail: "must not be empty"}
	}
	if len(deviceID) > maxDeviceIDLen {
		return 0, &ValidationError{Field: "device_id", Detail: "too long"}
	}

	s := t.shardFor(channelID)
	s.mu.Lock()
	s.entries[entryKey{channelID: channelID, deviceID: deviceID}] = now
	count := s.countLocked(channelID, now, t.window)
	s.mu.Unlock()

	metrics.RecordHeartbeat(channelID, count)
	return count, nil
}

// LiveCount counts entries for the channel whose age is within the
// liveness window. Stale entries are excluded at read time even if the
// sweeper has not visited them yet.
func (t *Tracker) LiveCount(channelID string, now time.Time) int {
	s := t.shardFor(channelID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(channelID, now, t.window)
}

func (s *shard) countLocked(channelID string, now time.Time, window time.Duration) int {
	count := 0
	for k, lastSeen := range s.entries {
		if k.channelID != channelID {
			continue
		}
		if now.Sub(lastSeen) <= window {
			count++
		}
	}
	return count
}

// Sweep removes entries older than the liveness window across all shards
// and returns the number evicted.
func (t *Tracker) Sweep(now time.Time) int {
	evicted := 0
	for _, s := range t.shards {
		s.mu.Lock()
		for k, lastSeen := range s.entries {
			if now.Sub(lastSeen) > t.window {
				delete(s.entries, k)
				evicted++
			}
		}
		s.mu.Unlock()
	}
	if evicted > 0 {
		metrics.RecordPresenceEvictions(evicted)
	}
	return evicted
}

// Run sweeps periodically until ctx is cancelled. Reads never block on the
// sweep; it only bounds memory.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = t.window / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			evicted := t.Sweep(now)
			if evicted > 0 {
				t.logger.Debug().
					Str("event", "presence.sweep").
					Int("evicted", evicted).
					Msg("evicted stale presence entries")
			}
		}
	}
}

// Size reports the total number of tracked entries, live or not.
func (t *Tracker) Size() int {
	total := 0
	for _, s := range t.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}
