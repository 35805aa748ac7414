// SPDX-License-Identifier: MIT

// Package catalog shapes channel records into client-safe representations
// and serves every catalog read path through the entitlement resolver.
package catalog

import (
	"errors"
	"time"

	"github.com/viewgate/viewgate/internal/entitle"
)

// ErrNotVisible is returned for detail requests the viewer may not see.
// It is surfaced as "not found" so private channels cannot be enumerated.
var ErrNotVisible = errors.New("channel not visible")

// ErrChannelNotFound is returned by stores for unknown channel IDs.
var ErrChannelNotFound = errors.New("channel not found")

// Channel is the catalog record as owned by the store. Only administrative
// operations and the view counter mutate it.
type Channel struct {
	ID          string
	Name        string
	Description string
	Category    string
	LogoURL     string

	Status           entitle.ChannelStatus
	AllowedPlatforms []entitle.Platform
	Premium          bool
	PublicPreview    bool
	Featured         bool

	StreamURL     string
	LifetimeViews int64
	CreatedAt     time.Time
}

// State extracts the entitlement-relevant snapshot of the channel.
func (c Channel) State() entitle.ChannelState {
	return entitle.ChannelState{
		Status:           c.Status,
		AllowedPlatforms: c.AllowedPlatforms,
		Premium:          c.Premium,
		PublicPreview:    c.PublicPreview,
	}
}

// ListFilter narrows a channel listing.
type ListFilter struct {
	Category     string
	FeaturedOnly bool
	NewestFirst  bool
	Limit        int // 0 means no limit
}

// ClientChannel is the redacted, client-facing channel representation.
type ClientChannel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`

	IsPremium  bool `json:"is_premium"`
	IsLocked   bool `json:"is_locked"`
	IsFeatured bool `json:"is_featured"`

	StreamURL string `json:"stream_url"`

	LiveViewers   int   `json:"live_viewers"`
	LifetimeViews int64 `json:"lifetime_views"`
}
