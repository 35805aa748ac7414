// SPDX-License-Identifier: MIT

package views

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBadger(t *testing.T) *BadgerDedup {
	t.Helper()
	store, err := NewBadgerDedup("", zerolog.Nop()) // in-memory
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerDedup_ClaimOncePerWindow(t *testing.T) {
	store := setupBadger(t)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "ch-x", "fp-1", t0, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, "ch-x", "fp-1", t0.Add(time.Minute), time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerDedup_ShortTTLExpires(t *testing.T) {
	store := setupBadger(t)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "ch-x", "fp-1", time.Now(), 100*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		ok, err := store.Claim(ctx, "ch-x", "fp-1", time.Now(), time.Hour)
		return err == nil && ok
	}, 3*time.Second, 50*time.Millisecond, "entry should expire via badger TTL")
}

func TestOpenDedupStore(t *testing.T) {
	mem, err := OpenDedupStore(DedupBackendConfig{Backend: "memory"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryDedup{}, mem)

	def, err := OpenDedupStore(DedupBackendConfig{}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryDedup{}, def)

	_, err = OpenDedupStore(DedupBackendConfig{Backend: "etcd"}, zerolog.Nop())
	assert.Error(t, err)
}
