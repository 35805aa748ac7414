// SPDX-License-Identifier: MIT

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_BurstThenThrottle(t *testing.T) {
	l := New(Config{PerIPRate: 1, PerIPBurst: 3, CleanupInterval: time.Hour})

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.False(t, l.Allow("10.0.0.1"), "burst exhausted")
}

func TestAllow_IPsAreIndependent(t *testing.T) {
	l := New(Config{PerIPRate: 1, PerIPBurst: 1, CleanupInterval: time.Hour})

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "second IP has its own bucket")
}

func TestCleanupResetsBuckets(t *testing.T) {
	l := New(Config{PerIPRate: 1, PerIPBurst: 1, CleanupInterval: time.Nanosecond})

	assert.True(t, l.Allow("10.0.0.1"))
	time.Sleep(time.Millisecond)
	// Cleanup dropped the bucket; the IP starts from full burst again.
	assert.True(t, l.Allow("10.0.0.1"))
}
