// SPDX-License-Identifier: MIT

// Package store provides the durable channel catalog: channel records and
// the lifetime view counter.
package store

import (
	"context"

	"github.com/viewgate/viewgate/internal/catalog"
)

// ChannelStore is the full catalog contract: reads for the serving paths,
// writes for the admin surface and the view counter.
type ChannelStore interface {
	catalog.Store

	// UpsertChannel creates or replaces a channel record.
	UpsertChannel(ctx context.Context, ch catalog.Channel) error

	// DeleteChannel removes a channel. Missing channels are not an error.
	DeleteChannel(ctx context.Context, id string) error

	// PersistViewIncrement atomically adds one to the channel's lifetime
	// view counter. Unknown channels are a no-op.
	PersistViewIncrement(ctx context.Context, channelID string) error

	Close() error
}
