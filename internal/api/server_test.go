// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viewgate/viewgate/internal/auth"
	"github.com/viewgate/viewgate/internal/catalog"
	"github.com/viewgate/viewgate/internal/config"
	"github.com/viewgate/viewgate/internal/entitle"
	"github.com/viewgate/viewgate/internal/health"
	"github.com/viewgate/viewgate/internal/presence"
	"github.com/viewgate/viewgate/internal/settings"
	"github.com/viewgate/viewgate/internal/store"
	"github.com/viewgate/viewgate/internal/views"
)

const testAdminToken = "test-admin-token"

type testEnv struct {
	server  *httptest.Server
	store   *store.MemoryStore
	holder  *settings.Holder
	tokens  *auth.Codec
	tracker *presence.Tracker
	now     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	nowFn := func() time.Time { return now }

	st := store.NewMemoryStore()
	seedChannels(t, st)

	holder := settings.NewHolder(entitle.Settings{}, filepath.Join(t.TempDir(), "settings.yaml"))
	tracker := presence.NewTracker(presence.DefaultWindow)
	counter := views.NewCounter(views.NewMemoryDedup(), st, views.DefaultCooldown)
	codec := auth.NewCodec("test-auth-secret")

	svc := catalog.NewService(st, holder, tracker, nowFn)

	srv := New(config.Config{
		AdminToken: testAdminToken,
		AuthSecret: "test-auth-secret",
	}, Deps{
		Catalog:  svc,
		Presence: tracker,
		Views:    counter,
		Settings: holder,
		Store:    st,
		Tokens:   codec,
		Health:   health.NewManager("test"),
		NowFn:    nowFn,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testEnv{
		server:  ts,
		store:   st,
		holder:  holder,
		tokens:  codec,
		tracker: tracker,
		now:     now,
	}
}

func seedChannels(t *testing.T, st *store.MemoryStore) {
	t.Helper()
	all := []entitle.Platform{entitle.PlatformWeb, entitle.PlatformAndroid, entitle.PlatformIOS, entitle.PlatformTV}
	channels := []catalog.Channel{
		{
			ID: "free-news", Name: "Free News", Category: "news",
			Status: entitle.StatusActive, AllowedPlatforms: all,
			StreamURL: "https://cdn.example.com/free-news.m3u8",
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "premium-sports", Name: "Premium Sports", Category: "sports",
			Status: entitle.StatusActive, AllowedPlatforms: all,
			Premium:   true,
			StreamURL: "https://cdn.example.com/premium-sports.m3u8",
			CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, ch := range channels {
		require.NoError(t, st.UpsertChannel(context.Background(), ch))
	}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set(HeaderPlatform, "web")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) subscriberToken(t *testing.T) string {
	t.Helper()
	token, err := e.tokens.Mint(auth.Identity{
		ViewerID:           "viewer-1",
		Subscription:       entitle.SubscriptionActive,
		PlanID:             "plan-monthly",
		SubscriptionExpiry: e.now.Add(24 * time.Hour),
		TokenExpiry:        e.now.Add(time.Hour),
	})
	require.NoError(t, err)
	return token
}

func TestListChannels_GuestSeesLockedPremium(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/channels", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	channels := decodeBody[[]catalog.ClientChannel](t, resp)

	require.Len(t, channels, 2)
	byID := map[string]catalog.ClientChannel{}
	for _, ch := range channels {
		byID[ch.ID] = ch
	}

	assert.False(t, byID["free-news"].IsLocked)
	assert.Equal(t, "https://cdn.example.com/free-news.m3u8", byID["free-news"].StreamURL)

	assert.True(t, byID["premium-sports"].IsLocked)
	assert.Equal(t, catalog.RestrictedStreamURL, byID["premium-sports"].StreamURL)
}

func TestGetChannel_PremiumDetail(t *testing.T) {
	env := newTestEnv(t)

	// Guest: locked premium detail is indistinguishable from missing.
	resp := env.request(t, http.MethodGet, "/api/channels/premium-sports", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	// Subscriber gets the real stream locator.
	resp = env.request(t, http.MethodGet, "/api/channels/premium-sports", env.subscriberToken(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ch := decodeBody[catalog.ClientChannel](t, resp)
	assert.False(t, ch.IsLocked)
	assert.Equal(t, "https://cdn.example.com/premium-sports.m3u8", ch.StreamURL)
}

func TestGetChannel_UnknownIs404(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/channels/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestHeartbeat(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/channels/free-news/heartbeat", "",
		heartbeatRequest{DeviceID: "device-a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hb := decodeBody[heartbeatResponse](t, resp)
	assert.Equal(t, 1, hb.LiveViewers)

	// A second device raises the live count.
	resp = env.request(t, http.MethodPost, "/api/channels/free-news/heartbeat", "",
		heartbeatRequest{DeviceID: "device-b"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hb = decodeBody[heartbeatResponse](t, resp)
	assert.Equal(t, 2, hb.LiveViewers)

	// Missing device_id is a validation error.
	resp = env.request(t, http.MethodPost, "/api/channels/free-news/heartbeat", "",
		heartbeatRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	// Hidden and unknown channels look the same.
	resp = env.request(t, http.MethodPost, "/api/channels/premium-sports/heartbeat", "",
		heartbeatRequest{DeviceID: "device-a"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestRecordView_Dedup(t *testing.T) {
	env := newTestEnv(t)
	token := env.subscriberToken(t)

	resp := env.request(t, http.MethodPost, "/api/channels/free-news/view", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decodeBody[viewResponse](t, resp)
	assert.True(t, v.Counted)

	// Same viewer inside the cooldown window is deduplicated.
	resp = env.request(t, http.MethodPost, "/api/channels/free-news/view", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v = decodeBody[viewResponse](t, resp)
	assert.False(t, v.Counted)
}

func TestAdmin_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/admin/settings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/admin/settings", "wrong-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/admin/settings", testAdminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAdmin_BlockAllHidesCatalog(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPut, "/api/admin/settings", testAdminToken,
		settingsDTO{BlockAll: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/channels", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	channels := decodeBody[[]catalog.ClientChannel](t, resp)
	assert.Empty(t, channels)
}

func TestAdmin_SettingsValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPut, "/api/admin/settings", testAdminToken,
		settingsDTO{DisabledPlatforms: []string{"gameboy"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAdmin_ChannelLifecycle(t *testing.T) {
	env := newTestEnv(t)

	dto := channelDTO{
		Name:             "Docs Channel",
		Category:         "docs",
		Status:           "active",
		AllowedPlatforms: []string{"web"},
		StreamURL:        "https://cdn.example.com/docs.m3u8",
	}
	resp := env.request(t, http.MethodPut, "/api/admin/channels/docs", testAdminToken, dto)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/channels/docs", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ch := decodeBody[catalog.ClientChannel](t, resp)
	assert.Equal(t, "Docs Channel", ch.Name)

	resp = env.request(t, http.MethodDelete, "/api/admin/channels/docs", testAdminToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/channels/docs", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAdmin_ChannelValidation(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPut, "/api/admin/channels/bad", testAdminToken,
		channelDTO{Name: "Bad", Status: "paused", StreamURL: "https://x/y.m3u8"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodPut, "/api/admin/channels/bad", testAdminToken,
		channelDTO{Status: "active", StreamURL: "https://x/y.m3u8"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/channels", "", nil)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestInvalidTokenDegradesToGuest(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/channels/premium-sports", "not.a.token", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}
