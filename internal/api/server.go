// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of viewgate: catalog reads,
// engagement ingest and the admin write surface.
package api

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/viewgate/viewgate/internal/api/middleware"
	"github.com/viewgate/viewgate/internal/auth"
	"github.com/viewgate/viewgate/internal/catalog"
	"github.com/viewgate/viewgate/internal/config"
	"github.com/viewgate/viewgate/internal/health"
	"github.com/viewgate/viewgate/internal/log"
	"github.com/viewgate/viewgate/internal/presence"
	"github.com/viewgate/viewgate/internal/ratelimit"
	"github.com/viewgate/viewgate/internal/settings"
	"github.com/viewgate/viewgate/internal/store"
	"github.com/viewgate/viewgate/internal/views"
)

// Deps carries everything the HTTP server needs. All fields are required
// unless noted.
type Deps struct {
	Catalog  *catalog.Service
	Presence *presence.Tracker
	Views    *views.Counter
	Settings *settings.Holder
	Store    store.ChannelStore
	Tokens   *auth.Codec
	Health   *health.Manager

	// HeartbeatLimiter is optional; nil disables per-IP heartbeat limiting.
	HeartbeatLimiter *ratelimit.Limiter

	// NowFn is optional, for tests.
	NowFn func() time.Time
}

// Server is the viewgate HTTP API server.
type Server struct {
	cfg      config.Config
	catalog  *catalog.Service
	presence *presence.Tracker
	views    *views.Counter
	settings *settings.Holder
	store    store.ChannelStore
	tokens   *auth.Codec
	health   *health.Manager

	hbLimiter      *ratelimit.Limiter
	trustedProxies []*net.IPNet
	nowFn          func() time.Time
	logger         zerolog.Logger
}

// New constructs the server. Invalid trusted proxy configuration is
// logged and ignored rather than rejected.
func New(cfg config.Config, deps Deps) *Server {
	logger := log.WithComponent("api")

	trusted, err := middleware.ParseCIDRs(cfg.TrustedProxies)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid trusted proxies configuration, ignoring value")
		trusted = nil
	}

	nowFn := deps.NowFn
	if nowFn == nil {
		nowFn = time.Now
	}

	return &Server{
		cfg:            cfg,
		catalog:        deps.Catalog,
		presence:       deps.Presence,
		views:          deps.Views,
		settings:       deps.Settings,
		store:          deps.Store,
		tokens:         deps.Tokens,
		health:         deps.Health,
		hbLimiter:      deps.HeartbeatLimiter,
		trustedProxies: trusted,
		nowFn:          nowFn,
		logger:         logger,
	}
}

// Handler builds the router with the canonical middleware stack applied.
func (s *Server) Handler() http.Handler {
	tracingService := ""
	if s.cfg.TracingEnabled {
		tracingService = "viewgate-api"
	}

	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            true,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        tracingService,
		EnableLogging:         true,
		RateLimitEnabled:      s.cfg.RateLimitEnabled,
		RateLimitRPM:          s.cfg.RateLimitRPM,
	})

	s.registerSystemRoutes(r)
	s.registerCatalogRoutes(r)
	s.registerEngagementRoutes(r)
	s.registerAdminRoutes(r)

	return r
}

func (s *Server) registerSystemRoutes(r chi.Router) {
	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func (s *Server) registerCatalogRoutes(r chi.Router) {
	r.Route("/api/channels", func(r chi.Router) {
		r.Get("/", s.handleListChannels)
		r.Get("/featured", s.handleFeaturedChannels)
		r.Get("/new", s.handleNewChannels)
		r.Get("/{channelID}", s.handleGetChannel)
		r.Get("/{channelID}/related", s.handleRelatedChannels)
	})
}

func (s *Server) registerEngagementRoutes(r chi.Router) {
	r.Post("/api/channels/{channelID}/heartbeat", s.handleHeartbeat)
	r.Post("/api/channels/{channelID}/view", s.handleRecordView)
}

func (s *Server) registerAdminRoutes(r chi.Router) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(s.adminOnly)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
		r.Put("/channels/{channelID}", s.handleUpsertChannel)
		r.Delete("/channels/{channelID}", s.handleDeleteChannel)
	})
}

// adminOnly guards the admin surface with the static operator token.
// An unset token disables the surface entirely.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminToken == "" {
			s.logger.Warn().Str("event", "admin.disabled").Msg("admin API called but no admin token configured")
			writeNotFound(w, r)
			return
		}
		if !auth.AuthorizeAdminToken(auth.ExtractToken(r), s.cfg.AdminToken) {
			logger := log.WithComponentFromContext(r.Context(), "admin-auth")
			logger.Warn().
				Str("event", "admin.auth_failed").
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("invalid admin token")
			writeUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the originating client address, honoring forwarding
// headers only from trusted proxies.
func (s *Server) clientIP(r *http.Request) string {
	return middleware.ClientIP(r, s.trustedProxies)
}
