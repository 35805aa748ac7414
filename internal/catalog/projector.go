// SPDX-License-Identifier: MIT

package catalog

import (
	"github.com/viewgate/viewgate/internal/entitle"
)

// RestrictedStreamURL is the sentinel returned in place of the real stream
// locator when the viewer is not entitled to play the channel.
const RestrictedStreamURL = "restricted"

// Counts carries the engagement numbers attached to a projection. They are
// best-effort and never block the response.
type Counts struct {
	LiveViewers   int
	LifetimeViews int64
}

// Project applies an access decision to a channel record. Invisible
// channels yield ErrNotVisible; callers building lists skip those entries,
// detail handlers surface them as "not found". The real stream locator is
// only included when the channel is free or the decision unlocked it.
func Project(ch Channel, d entitle.Decision, counts Counts) (ClientChannel, error) {
	if !d.Visible {
		return ClientChannel{}, ErrNotVisible
	}

	locked := ch.Premium && !d.PremiumUnlocked
	streamURL := ch.StreamURL
	if locked {
		streamURL = RestrictedStreamURL
	}

	return ClientChannel{
		ID:          ch.ID,
		Name:        ch.Name,
		Description: ch.Description,
		Category:    ch.Category,
		LogoURL:     ch.LogoURL,

		IsPremium:  ch.Premium,
		IsLocked:   locked,
		IsFeatured: ch.Featured,

		StreamURL: streamURL,

		LiveViewers:   counts.LiveViewers,
		LifetimeViews: counts.LifetimeViews,
	}, nil
}
