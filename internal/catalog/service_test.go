// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viewgate/viewgate/internal/entitle"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// stubStore is a minimal in-memory Store for service tests.
type stubStore struct {
	channels []Channel
}

func (s *stubStore) GetChannel(_ context.Context, id string) (Channel, error) {
	for _, ch := range s.channels {
		if ch.ID == id {
			return ch, nil
		}
	}
	return Channel{}, ErrChannelNotFound
}

func (s *stubStore) ListChannels(_ context.Context, filter ListFilter) ([]Channel, error) {
	out := make([]Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		if filter.Category != "" && ch.Category != filter.Category {
			continue
		}
		if filter.FeaturedOnly && !ch.Featured {
			continue
		}
		out = append(out, ch)
	}
	if filter.NewestFirst {
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type stubSettings struct {
	s entitle.Settings
}

func (s stubSettings) Snapshot() entitle.Settings { return s.s }

type stubLive struct {
	counts map[string]int
}

func (s stubLive) LiveCount(channelID string, _ time.Time) int { return s.counts[channelID] }

func fixtureStore() *stubStore {
	allPlatforms := []entitle.Platform{entitle.PlatformWeb, entitle.PlatformAndroid, entitle.PlatformIOS, entitle.PlatformTV}
	return &stubStore{channels: []Channel{
		{
			ID: "news", Name: "News 24", Category: "news", Featured: true,
			Status: entitle.StatusActive, AllowedPlatforms: allPlatforms,
			StreamURL: "https://cdn.example.com/news.m3u8", CreatedAt: testNow.Add(-72 * time.Hour),
		},
		{
			ID: "cinema", Name: "Cinema One", Category: "movies", Premium: true,
			Status: entitle.StatusActive, AllowedPlatforms: allPlatforms,
			StreamURL: "https://cdn.example.com/cinema.m3u8", CreatedAt: testNow.Add(-48 * time.Hour),
			LifetimeViews: 42,
		},
		{
			ID: "cinema2", Name: "Cinema Two", Category: "movies", Premium: true, PublicPreview: true,
			Status: entitle.StatusActive, AllowedPlatforms: allPlatforms,
			StreamURL: "https://cdn.example.com/cinema2.m3u8", CreatedAt: testNow.Add(-24 * time.Hour),
		},
		{
			ID: "legacy", Name: "Legacy TV", Category: "movies",
			Status: entitle.StatusRetired, AllowedPlatforms: allPlatforms,
			StreamURL: "https://cdn.example.com/legacy.m3u8", CreatedAt: testNow.Add(-240 * time.Hour),
		},
	}}
}

func newTestService(settings entitle.Settings) *Service {
	return NewService(fixtureStore(), stubSettings{settings}, stubLive{counts: map[string]int{"news": 7}}, func() time.Time { return testNow })
}

func guest() entitle.Viewer {
	return entitle.Viewer{Platform: entitle.PlatformWeb}
}

func activeSubscriber() entitle.Viewer {
	return entitle.Viewer{
		Platform:           entitle.PlatformWeb,
		Authenticated:      true,
		Subscription:       entitle.SubscriptionActive,
		PlanID:             "plan-basic",
		SubscriptionExpiry: testNow.Add(24 * time.Hour),
	}
}

func TestList_GuestSeesLockedPremiumButNotRetired(t *testing.T) {
	t.Parallel()
	svc := newTestService(entitle.Settings{})

	got, err := svc.List(context.Background(), ListFilter{}, guest())
	require.NoError(t, err)

	byID := make(map[string]ClientChannel, len(got))
	for _, ch := range got {
		byID[ch.ID] = ch
	}

	require.Len(t, got, 3, "retired channel must be omitted")

	// Premium, non-preview: listed but redacted.
	cinema := byID["cinema"]
	assert.True(t, cinema.IsPremium)
	assert.True(t, cinema.IsLocked)
	assert.Equal(t, RestrictedStreamURL, cinema.StreamURL)

	// Public preview plays for guests.
	assert.Equal(t, "https://cdn.example.com/cinema2.m3u8", byID["cinema2"].StreamURL)

	// Free channel plays and carries its live count.
	assert.Equal(t, "https://cdn.example.com/news.m3u8", byID["news"].StreamURL)
	assert.Equal(t, 7, byID["news"].LiveViewers)
}

func TestGet_DetailAsymmetry(t *testing.T) {
	t.Parallel()
	svc := newTestService(entitle.Settings{})

	// List shows cinema locked, but detail hides it entirely from guests.
	_, err := svc.Get(context.Background(), "cinema", guest())
	assert.ErrorIs(t, err, ErrNotVisible)

	// Missing channels are indistinguishable from denied ones.
	_, err = svc.Get(context.Background(), "no-such-channel", guest())
	assert.ErrorIs(t, err, ErrNotVisible)
}

func TestGet_SubscriberGetsRealLocator(t *testing.T) {
	t.Parallel()
	svc := newTestService(entitle.Settings{})

	got, err := svc.Get(context.Background(), "cinema", activeSubscriber())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/cinema.m3u8", got.StreamURL)
	assert.False(t, got.IsLocked)
	assert.Equal(t, int64(42), got.LifetimeViews)
}

func TestGet_OpenAccessUnlocksGuests(t *testing.T) {
	t.Parallel()
	svc := newTestService(entitle.Settings{OpenAccess: true})

	got, err := svc.Get(context.Background(), "cinema", guest())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/cinema.m3u8", got.StreamURL)
}

func TestList_KillSwitchEmptiesCatalogForNonAdmins(t *testing.T) {
	t.Parallel()
	svc := newTestService(entitle.Settings{BlockAll: true})

	got, err := svc.List(context.Background(), ListFilter{}, activeSubscriber())
	require.NoError(t, err)
	assert.Empty(t, got)

	admin, err := svc.List(context.Background(), ListFilter{}, entitle.Viewer{Admin: true})
	require.NoError(t, err)
	assert.Len(t, admin, 4, "admins see everything, including retired channels")
}

func TestFeatured(t *testing.T) {
	t.Parallel()
	svc := newTestService(entitle.Settings{})

	got, err := svc.Featured(context.Background(), guest())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "news", got[0].ID)
}

func TestNewest(t *testing.T) {
	t.Parallel()
	svc := newTestService(entitle.Settings{})

	got, err := svc.Newest(context.Background(), 2, guest())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "cinema2", got[0].ID)
	assert.Equal(t, "cinema", got[1].ID)
}

func TestRelated(t *testing.T) {
	t.Parallel()
	svc := newTestService(entitle.Settings{})

	// Anchor hidden from guests: related is denied the same way.
	_, err := svc.Related(context.Background(), "cinema", 10, guest())
	assert.ErrorIs(t, err, ErrNotVisible)

	got, err := svc.Related(context.Background(), "cinema", 10, activeSubscriber())
	require.NoError(t, err)
	require.Len(t, got, 1, "same category, excluding the anchor and the retired channel")
	assert.Equal(t, "cinema2", got[0].ID)
}

func TestList_DisabledPlatform(t *testing.T) {
	t.Parallel()
	svc := newTestService(entitle.Settings{DisabledPlatforms: []entitle.Platform{entitle.PlatformWeb}})

	got, err := svc.List(context.Background(), ListFilter{}, guest())
	require.NoError(t, err)
	assert.Empty(t, got)
}
