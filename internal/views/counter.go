// SPDX-License-Identifier: MIT

package views

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/viewgate/viewgate/internal/log"
	"github.com/viewgate/viewgate/internal/metrics"
)

// DefaultCooldown is the minimum gap between two counted views from the
// same fingerprint on the same channel.
const DefaultCooldown = 6 * time.Hour

const maxFingerprintLen = 128

// ValidationError reports a malformed view event. No state is mutated
// when it is returned.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// Recorder persists a genuine (non-deduplicated) view increment durably.
// Implementations must make the increment atomic per channel.
type Recorder interface {
	PersistViewIncrement(ctx context.Context, channelID string) error
}

// Counter deduplicates view events and hands genuine ones to the durable
// Recorder. Persistence runs off the request path; failures are logged
// and swallowed since view counting is best-effort telemetry.
type Counter struct {
	dedup    DedupStore
	recorder Recorder
	cooldown time.Duration
	logger   zerolog.Logger
	queue    chan string
}

// NewCounter creates a Counter. A non-positive cooldown falls back to
// DefaultCooldown.
func NewCounter(dedup DedupStore, recorder Recorder, cooldown time.Duration) *Counter {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Counter{
		dedup:    dedup,
		recorder: recorder,
		cooldown: cooldown,
		logger:   xglog.WithComponent("views"),
		queue:    make(chan string, 1024),
	}
}

// Cooldown returns the configured dedup window.
func (c *Counter) Cooldown() time.Duration {
	return c.cooldown
}

// RecordView claims the (channel, fingerprint) pair for the current
// cool-down window. It returns true when the view counts toward the
// lifetime counter; replays within the window return false. The durable
// increment is dispatched asynchronously and never fails the caller.
func (c *Counter) RecordView(ctx context.Context, channelID, fingerprint string, now time.Time) (bool, error) {
	if channelID == "" {
		return false, &ValidationError{Field: "channel_id", Detail: "must not be empty"}
	}
	if fingerprint == "" {
		return false, &ValidationError{Field: "fingerprint", Detail: "must not be empty"}
	}
	if len(fingerprint) > maxFingerprintLen {
		return false, &ValidationError{Field: "fingerprint", Detail: "too long"}
	}

	claimed, err := c.dedup.Claim(ctx, channelID, fingerprint, now, c.cooldown)
	if err != nil {
		// A broken dedup store must not fail playback telemetry; treat
		// the event as a replay and move on.
		c.logger.Warn().Err(err).
			Str(xglog.FieldChannelID, channelID).
			Str("event", "views.claim_failed").
			Msg("dedup claim failed, dropping view event")
		metrics.RecordView(false)
		return false, nil
	}

	metrics.RecordView(claimed)
	if !claimed {
		return false, nil
	}

	select {
	case c.queue <- channelID:
	default:
		// Queue full: persist inline rather than lose the increment.
		c.persist(channelID)
	}
	return true, nil
}

// Run drains the persist queue until ctx is cancelled.
func (c *Counter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.drain()
			return
		case channelID := <-c.queue:
			c.persist(channelID)
		}
	}
}

// drain flushes whatever is still queued at shutdown.
func (c *Counter) drain() {
	for {
		select {
		case channelID := <-c.queue:
			c.persist(channelID)
		default:
			return
		}
	}
}

func (c *Counter) persist(channelID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.recorder.PersistViewIncrement(ctx, channelID); err != nil {
		metrics.RecordViewPersistFailure()
		c.logger.Warn().Err(err).
			Str(xglog.FieldChannelID, channelID).
			Str("event", "views.persist_failed").
			Msg("durable view increment failed")
	}
}
