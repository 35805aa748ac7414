// SPDX-License-Identifier: MIT

package views

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerDedup keeps dedup entries in an embedded badger store so the
// window survives a process restart. Entries carry a TTL matching the
// cool-down; badger expires them without a sweep.
type BadgerDedup struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewBadgerDedup opens (or creates) the badger directory at path. An empty
// path opens an in-memory store, which is what tests use.
func NewBadgerDedup(path string, logger zerolog.Logger) (*BadgerDedup, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger dedup store: %w", err)
	}
	return &BadgerDedup{db: db, logger: logger}, nil
}

func dedupBadgerKey(channelID, fingerprint string) []byte {
	return []byte("dedup/" + channelID + "/" + fingerprint)
}

// Claim implements DedupStore. The read-check-write runs inside one
// badger transaction, so concurrent claims for the same key conflict and
// retry rather than double-count.
func (b *BadgerDedup) Claim(_ context.Context, channelID, fingerprint string, now time.Time, ttl time.Duration) (bool, error) {
	key := dedupBadgerKey(channelID, fingerprint)

	for {
		claimed := false
		err := b.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(key)
			switch {
			case err == nil:
				// Entry still within its TTL: replay, no count.
				return nil
			case errors.Is(err, badger.ErrKeyNotFound):
				claimed = true
				entry := badger.NewEntry(key, []byte(now.UTC().Format(time.RFC3339))).WithTTL(ttl)
				return txn.SetEntry(entry)
			default:
				return err
			}
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("badger claim: %w", err)
		}
		return claimed, nil
	}
}

func (b *BadgerDedup) Close() error {
	return b.db.Close()
}
