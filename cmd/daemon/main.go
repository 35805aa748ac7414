// SPDX-License-Identifier: MIT

// Command daemon runs the viewgate server: entitlement-gated catalog
// reads, presence tracking, view counting and the admin surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/viewgate/viewgate/internal/api"
	"github.com/viewgate/viewgate/internal/auth"
	"github.com/viewgate/viewgate/internal/catalog"
	"github.com/viewgate/viewgate/internal/config"
	"github.com/viewgate/viewgate/internal/daemon"
	"github.com/viewgate/viewgate/internal/health"
	xglog "github.com/viewgate/viewgate/internal/log"
	"github.com/viewgate/viewgate/internal/presence"
	"github.com/viewgate/viewgate/internal/ratelimit"
	"github.com/viewgate/viewgate/internal/settings"
	"github.com/viewgate/viewgate/internal/store"
	"github.com/viewgate/viewgate/internal/telemetry"
	"github.com/viewgate/viewgate/internal/views"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "viewgate",
	})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("startup checks failed")
	}

	telemetryProvider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    "viewgate",
		ServiceVersion: version,
		Environment:    cfg.Environment,
		ExporterType:   cfg.TracingExporter,
		Endpoint:       cfg.TracingEndpoint,
		SamplingRate:   cfg.TracingSampling,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telemetry")
	}

	// Durable channel catalog.
	channelStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open channel store")
	}

	// Mutable global settings with hot reload.
	initialSettings, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.SettingsPath).Msg("failed to load settings")
	}
	settingsHolder := settings.NewHolder(initialSettings, cfg.SettingsPath)

	// Engagement subsystems.
	tracker := presence.NewTracker(cfg.LivenessWindow)
	dedup, err := views.OpenDedupStore(views.DedupBackendConfig{
		Backend: cfg.DedupBackend,
		Path:    cfg.DedupPath,
		Redis: views.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
	}, xglog.WithComponent("dedup"))
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.DedupBackend).Msg("failed to open dedup store")
	}
	counter := views.NewCounter(dedup, channelStore, cfg.ViewCooldown)

	catalogService := catalog.NewService(channelStore, settingsHolder, tracker, nil)

	healthManager := health.NewManager(version)
	healthManager.RegisterChecker(health.NewFileChecker("settings_file", cfg.SettingsPath))
	healthManager.RegisterChecker(health.NewPingChecker("channel_store", func(ctx context.Context) error {
		_, err := channelStore.ListChannels(ctx, catalog.ListFilter{Limit: 1})
		return err
	}))

	hbLimiter := ratelimit.New(ratelimit.Config{
		PerIPRate:       rate.Limit(cfg.HeartbeatRPS),
		PerIPBurst:      cfg.HeartbeatBurst,
		CleanupInterval: 5 * time.Minute,
	})

	server := api.New(cfg, api.Deps{
		Catalog:          catalogService,
		Presence:         tracker,
		Views:            counter,
		Settings:         settingsHolder,
		Store:            channelStore,
		Tokens:           auth.NewCodec(cfg.AuthSecret),
		Health:           healthManager,
		HeartbeatLimiter: hbLimiter,
	})

	app, err := daemon.NewApp(daemon.Deps{
		Config:    cfg,
		Handler:   server.Handler(),
		Settings:  settingsHolder,
		Presence:  tracker,
		Views:     counter,
		Store:     channelStore,
		Dedup:     dedup,
		Telemetry: telemetryProvider,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to assemble daemon")
	}

	logger.Info().
		Str("version", version).
		Str("listen", cfg.ListenAddr).
		Str("dedup_backend", cfg.DedupBackend).
		Msg("viewgate starting")

	if err := app.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("daemon exited with error")
	}
	logger.Info().Msg("viewgate stopped")
}
