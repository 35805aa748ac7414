// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/viewgate/viewgate/internal/entitle"
	xglog "github.com/viewgate/viewgate/internal/log"
	"github.com/viewgate/viewgate/internal/metrics"
)

// Store is the read side of the channel catalog.
type Store interface {
	GetChannel(ctx context.Context, id string) (Channel, error)
	ListChannels(ctx context.Context, filter ListFilter) ([]Channel, error)
}

// SettingsSource supplies a settings snapshot per request.
type SettingsSource interface {
	Snapshot() entitle.Settings
}

// LiveCounter reads the approximate live viewer count for a channel.
type LiveCounter interface {
	LiveCount(channelID string, now time.Time) int
}

// Service serves every catalog read path. Each path re-derives the access
// decision through the same resolver so list, detail, featured, related
// and new can never drift apart.
type Service struct {
	store    Store
	settings SettingsSource
	live     LiveCounter
	nowFn    func() time.Time
	logger   zerolog.Logger
}

// NewService wires a catalog service. nowFn defaults to time.Now.
func NewService(store Store, settings SettingsSource, live LiveCounter, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Service{
		store:    store,
		settings: settings,
		live:     live,
		nowFn:    nowFn,
		logger:   xglog.WithComponent("catalog"),
	}
}

// List returns the channels matching filter that the viewer may see.
// Invisible channels are omitted entirely; locked premium channels appear
// with a redacted stream locator.
func (s *Service) List(ctx context.Context, filter ListFilter, viewer entitle.Viewer) ([]ClientChannel, error) {
	channels, err := s.store.ListChannels(ctx, filter)
	if err != nil {
		return nil, err
	}

	settings := s.settings.Snapshot()
	now := s.nowFn()

	out := make([]ClientChannel, 0, len(channels))
	for _, ch := range channels {
		projected, err := s.projectOne(ch, viewer, settings, entitle.ModeList, now)
		if err != nil {
			continue
		}
		out = append(out, projected)
	}
	return out, nil
}

// Get returns the detail projection of one channel. A missing channel and
// a channel the viewer may not see are indistinguishable: both yield
// ErrNotVisible.
func (s *Service) Get(ctx context.Context, id string, viewer entitle.Viewer) (ClientChannel, error) {
	ch, err := s.store.GetChannel(ctx, id)
	if err != nil {
		if errors.Is(err, ErrChannelNotFound) {
			return ClientChannel{}, ErrNotVisible
		}
		return ClientChannel{}, err
	}
	return s.projectOne(ch, viewer, s.settings.Snapshot(), entitle.ModeDetail, s.nowFn())
}

// Featured lists the channels flagged for the front page.
func (s *Service) Featured(ctx context.Context, viewer entitle.Viewer) ([]ClientChannel, error) {
	return s.List(ctx, ListFilter{FeaturedOnly: true}, viewer)
}

// Newest lists the most recently added channels.
func (s *Service) Newest(ctx context.Context, limit int, viewer entitle.Viewer) ([]ClientChannel, error) {
	return s.List(ctx, ListFilter{NewestFirst: true, Limit: limit}, viewer)
}

// Related lists channels sharing the category of the given channel,
// excluding the channel itself. The anchor channel must itself be visible
// to the viewer, otherwise ErrNotVisible.
func (s *Service) Related(ctx context.Context, id string, limit int, viewer entitle.Viewer) ([]ClientChannel, error) {
	anchor, err := s.Get(ctx, id, viewer)
	if err != nil {
		return nil, err
	}

	listed, err := s.List(ctx, ListFilter{Category: anchor.Category, Limit: 0}, viewer)
	if err != nil {
		return nil, err
	}

	out := make([]ClientChannel, 0, len(listed))
	for _, ch := range listed {
		if ch.ID == id {
			continue
		}
		out = append(out, ch)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// projectOne resolves and projects a single channel, recording the
// decision outcome. Engagement counts are attached best-effort.
func (s *Service) projectOne(ch Channel, viewer entitle.Viewer, settings entitle.Settings, mode entitle.Mode, now time.Time) (ClientChannel, error) {
	decision := entitle.Resolve(entitle.Input{
		Channel:  ch.State(),
		Viewer:   viewer,
		Settings: settings,
		Mode:     mode,
		Now:      now,
	})
	metrics.RecordDecision(string(mode), decision.Visible, decision.PremiumUnlocked, string(decision.Reason))

	if !decision.Visible && mode == entitle.ModeDetail {
		s.logger.Debug().
			Str(xglog.FieldChannelID, ch.ID).
			Str(xglog.FieldReason, string(decision.Reason)).
			Msg("detail access denied")
	}

	counts := Counts{LifetimeViews: ch.LifetimeViews}
	if s.live != nil {
		counts.LiveViewers = s.live.LiveCount(ch.ID, now)
	}
	return Project(ch, decision, counts)
}
