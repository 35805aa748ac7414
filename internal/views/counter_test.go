// SPDX-License-Identifier: MIT

package views

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// recordingStub counts durable increments per channel.
type recordingStub struct {
	mu     sync.Mutex
	counts map[string]int
	calls  atomic.Int64
	err    error
}

func newRecordingStub() *recordingStub {
	return &recordingStub{counts: make(map[string]int)}
}

func (r *recordingStub) PersistViewIncrement(_ context.Context, channelID string) error {
	r.calls.Add(1)
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	r.counts[channelID]++
	r.mu.Unlock()
	return nil
}

func (r *recordingStub) count(channelID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[channelID]
}

// syncCounter records views and flushes the persist queue inline so tests
// can assert on durable counts deterministically.
func syncRecord(t *testing.T, c *Counter, channelID, fp string, now time.Time) bool {
	t.Helper()
	counted, err := c.RecordView(context.Background(), channelID, fp, now)
	require.NoError(t, err)
	c.drain()
	return counted
}

func TestRecordView_DedupWindow(t *testing.T) {
	t.Parallel()
	rec := newRecordingStub()
	c := NewCounter(NewMemoryDedup(), rec, time.Hour)

	assert.True(t, syncRecord(t, c, "ch-x", "fp-1", t0))
	assert.False(t, syncRecord(t, c, "ch-x", "fp-1", t0.Add(30*time.Minute)), "replay within cooldown")
	assert.Equal(t, 1, rec.count("ch-x"))

	// Window measured from the first counted view: t0+1h is eligible again.
	assert.True(t, syncRecord(t, c, "ch-x", "fp-1", t0.Add(time.Hour)))
	assert.Equal(t, 2, rec.count("ch-x"))
}

func TestRecordView_DistinctFingerprintsAndChannels(t *testing.T) {
	t.Parallel()
	rec := newRecordingStub()
	c := NewCounter(NewMemoryDedup(), rec, time.Hour)

	assert.True(t, syncRecord(t, c, "ch-x", "fp-1", t0))
	assert.True(t, syncRecord(t, c, "ch-x", "fp-2", t0))
	assert.True(t, syncRecord(t, c, "ch-y", "fp-1", t0))

	assert.Equal(t, 2, rec.count("ch-x"))
	assert.Equal(t, 1, rec.count("ch-y"))
}

func TestRecordView_Validation(t *testing.T) {
	t.Parallel()
	rec := newRecordingStub()
	c := NewCounter(NewMemoryDedup(), rec, time.Hour)

	var verr *ValidationError
	_, err := c.RecordView(context.Background(), "", "fp-1", t0)
	require.ErrorAs(t, err, &verr)

	_, err = c.RecordView(context.Background(), "ch-x", "", t0)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fingerprint", verr.Field)

	assert.Equal(t, int64(0), rec.calls.Load())
}

func TestRecordView_PersistFailureSwallowed(t *testing.T) {
	t.Parallel()
	rec := newRecordingStub()
	rec.err = errors.New("db down")
	c := NewCounter(NewMemoryDedup(), rec, time.Hour)

	// The caller still sees a counted view; the failure is telemetry-only.
	counted := syncRecord(t, c, "ch-x", "fp-1", t0)
	assert.True(t, counted)
	assert.Equal(t, int64(1), rec.calls.Load())
}

func TestRecordView_BrokenDedupStoreDegrades(t *testing.T) {
	t.Parallel()
	rec := newRecordingStub()
	c := NewCounter(failingDedup{}, rec, time.Hour)

	counted, err := c.RecordView(context.Background(), "ch-x", "fp-1", t0)
	require.NoError(t, err, "dedup store failure must not propagate")
	assert.False(t, counted)
	assert.Equal(t, int64(0), rec.calls.Load())
}

type failingDedup struct{}

func (failingDedup) Claim(context.Context, string, string, time.Time, time.Duration) (bool, error) {
	return false, errors.New("store unavailable")
}
func (failingDedup) Close() error { return nil }

func TestRecordView_ConcurrentSameChannel(t *testing.T) {
	t.Parallel()
	rec := newRecordingStub()
	c := NewCounter(NewMemoryDedup(), rec, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	const callers = 100
	var counted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// All distinct fingerprints: every view is genuine.
			ok, err := c.RecordView(context.Background(), "ch-x", fingerprintN(i), t0)
			assert.NoError(t, err)
			if ok {
				counted.Add(1)
			}
		}(i)
	}
	wg.Wait()
	cancel()
	<-done
	c.drain()

	// No increment may be lost under concurrency.
	assert.Equal(t, int64(callers), counted.Load())
	assert.Equal(t, callers, rec.count("ch-x"))
}

func fingerprintN(i int) string {
	return "fp-" + string(rune('a'+i%26)) + "-" + time.Duration(i).String()
}

func TestMemoryDedup_Sweep(t *testing.T) {
	t.Parallel()
	d := NewMemoryDedup()

	_, _ = d.Claim(context.Background(), "ch-x", "old", t0, time.Hour)
	_, _ = d.Claim(context.Background(), "ch-x", "fresh", t0.Add(50*time.Minute), time.Hour)

	removed := d.Sweep(t0.Add(time.Hour), time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, d.Size())
}
