// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/viewgate/viewgate/internal/catalog"
)

// MemoryStore is an in-memory ChannelStore for tests and local iteration.
// Not durable.
type MemoryStore struct {
	mu       sync.RWMutex
	channels map[string]catalog.Channel
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{channels: make(map[string]catalog.Channel)}
}

func (m *MemoryStore) Close() error { return nil }

// GetChannel implements catalog.Store.
func (m *MemoryStore) GetChannel(_ context.Context, id string) (catalog.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ch, ok := m.channels[id]
	if !ok {
		return catalog.Channel{}, catalog.ErrChannelNotFound
	}
	return ch, nil
}

// ListChannels implements catalog.Store.
func (m *MemoryStore) ListChannels(_ context.Context, filter catalog.ListFilter) ([]catalog.Channel, error) {
	m.mu.RLock()
	out := make([]catalog.Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		if filter.Category != "" && ch.Category != filter.Category {
			continue
		}
		if filter.FeaturedOnly && !ch.Featured {
			continue
		}
		out = append(out, ch)
	}
	m.mu.RUnlock()

	if filter.NewestFirst {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// UpsertChannel implements ChannelStore.
func (m *MemoryStore) UpsertChannel(_ context.Context, ch catalog.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.ID] = ch
	return nil
}

// DeleteChannel implements ChannelStore.
func (m *MemoryStore) DeleteChannel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.channels, id)
	return nil
}

// PersistViewIncrement implements ChannelStore.
func (m *MemoryStore) PersistViewIncrement(_ context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[channelID]
	if !ok {
		return nil
	}
	ch.LifetimeViews++
	m.channels[channelID] = ch
	return nil
}
