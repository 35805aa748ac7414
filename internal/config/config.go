// SPDX-License-Identifier: MIT

// Package config loads and validates the viewgate runtime configuration
// from environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config holds the full runtime configuration for the daemon.
type Config struct {
	// HTTP
	ListenAddr     string
	TrustedProxies []string

	// Storage
	DataDir      string
	DBPath       string
	SettingsPath string

	// Auth
	AdminToken string // empty disables the admin API
	AuthSecret string // HMAC key for viewer tokens

	// Presence
	LivenessWindow time.Duration
	SweepInterval  time.Duration

	// View counting
	ViewCooldown  time.Duration
	DedupBackend  string // "memory", "redis" or "badger"
	DedupPath     string // badger directory
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitEnabled bool
	RateLimitRPM     int // general API requests per minute per IP
	HeartbeatRPS     int // heartbeat ingest per IP
	HeartbeatBurst   int

	// Tracing
	TracingEnabled  bool
	TracingExporter string
	TracingEndpoint string
	TracingSampling float64
	Environment     string

	// Misc
	LogLevel        string
	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from VIEWGATE_* environment variables with
// sensible defaults for local development.
func FromEnv() Config {
	dataDir := ParseString("VIEWGATE_DATA_DIR", "./data")

	cfg := Config{
		ListenAddr:     ParseString("VIEWGATE_LISTEN", ":8080"),
		TrustedProxies: ParseStringSlice("VIEWGATE_TRUSTED_PROXIES", nil),

		DataDir:      dataDir,
		DBPath:       ParseString("VIEWGATE_DB_PATH", filepath.Join(dataDir, "catalog.db")),
		SettingsPath: ParseString("VIEWGATE_SETTINGS_PATH", filepath.Join(dataDir, "settings.yaml")),

		AdminToken: ParseString("VIEWGATE_ADMIN_TOKEN", ""),
		AuthSecret: ParseString("VIEWGATE_AUTH_SECRET", ""),

		LivenessWindow: ParseDuration("VIEWGATE_LIVENESS_WINDOW", 120*time.Second),
		SweepInterval:  ParseDuration("VIEWGATE_SWEEP_INTERVAL", 60*time.Second),

		ViewCooldown:  ParseDuration("VIEWGATE_VIEW_COOLDOWN", 6*time.Hour),
		DedupBackend:  ParseString("VIEWGATE_DEDUP_BACKEND", "memory"),
		DedupPath:     ParseString("VIEWGATE_DEDUP_PATH", filepath.Join(dataDir, "dedup")),
		RedisAddr:     ParseString("VIEWGATE_REDIS_ADDR", ""),
		RedisPassword: ParseString("VIEWGATE_REDIS_PASSWORD", ""),
		RedisDB:       ParseInt("VIEWGATE_REDIS_DB", 0),

		RateLimitEnabled: ParseBool("VIEWGATE_RATELIMIT_ENABLED", true),
		RateLimitRPM:     ParseInt("VIEWGATE_RATELIMIT_RPM", 600),
		HeartbeatRPS:     ParseInt("VIEWGATE_HEARTBEAT_RPS", 5),
		HeartbeatBurst:   ParseInt("VIEWGATE_HEARTBEAT_BURST", 10),

		TracingEnabled:  ParseBool("VIEWGATE_TRACING_ENABLED", false),
		TracingExporter: ParseString("VIEWGATE_TRACING_EXPORTER", "grpc"),
		TracingEndpoint: ParseString("VIEWGATE_TRACING_ENDPOINT", "localhost:4317"),
		TracingSampling: float64(ParseInt("VIEWGATE_TRACING_SAMPLING_PCT", 100)) / 100.0,
		Environment:     ParseString("VIEWGATE_ENV", "development"),

		LogLevel:        ParseString("LOG_LEVEL", "info"),
		ShutdownTimeout: ParseDuration("VIEWGATE_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	return cfg
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.LivenessWindow <= 0 {
		return fmt.Errorf("liveness window must be positive, got %s", c.LivenessWindow)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	if c.ViewCooldown <= 0 {
		return fmt.Errorf("view cooldown must be positive, got %s", c.ViewCooldown)
	}
	switch c.DedupBackend {
	case "memory", "badger":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("redis dedup backend requires VIEWGATE_REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown dedup backend %q (supported: memory, redis, badger)", c.DedupBackend)
	}
	if c.TracingEnabled {
		switch c.TracingExporter {
		case "grpc", "http":
		default:
			return fmt.Errorf("unsupported tracing exporter %q (supported: grpc, http)", c.TracingExporter)
		}
	}
	if c.HeartbeatRPS <= 0 || c.HeartbeatBurst <= 0 {
		return fmt.Errorf("heartbeat rate limits must be positive")
	}
	return nil
}
