// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 120*time.Second, cfg.LivenessWindow)
	assert.Equal(t, 6*time.Hour, cfg.ViewCooldown)
	assert.Equal(t, "memory", cfg.DedupBackend)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("VIEWGATE_LISTEN", ":9090")
	t.Setenv("VIEWGATE_LIVENESS_WINDOW", "90s")
	t.Setenv("VIEWGATE_VIEW_COOLDOWN", "30m")
	t.Setenv("VIEWGATE_HEARTBEAT_RPS", "20")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 90*time.Second, cfg.LivenessWindow)
	assert.Equal(t, 30*time.Minute, cfg.ViewCooldown)
	assert.Equal(t, 20, cfg.HeartbeatRPS)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty listen address",
			mutate:  func(c *Config) { c.ListenAddr = "" },
			wantErr: "listen address",
		},
		{
			name:    "zero liveness window",
			mutate:  func(c *Config) { c.LivenessWindow = 0 },
			wantErr: "liveness window",
		},
		{
			name:    "unknown dedup backend",
			mutate:  func(c *Config) { c.DedupBackend = "etcd" },
			wantErr: "unknown dedup backend",
		},
		{
			name:    "redis backend without address",
			mutate:  func(c *Config) { c.DedupBackend = "redis" },
			wantErr: "VIEWGATE_REDIS_ADDR",
		},
		{
			name: "bad tracing exporter",
			mutate: func(c *Config) {
				c.TracingEnabled = true
				c.TracingExporter = "jaeger"
			},
			wantErr: "tracing exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromEnv()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseHelpers(t *testing.T) {
	t.Setenv("VG_TEST_INT", "not-a-number")
	assert.Equal(t, 42, ParseInt("VG_TEST_INT", 42))

	t.Setenv("VG_TEST_BOOL", "true")
	assert.True(t, ParseBool("VG_TEST_BOOL", false))

	t.Setenv("VG_TEST_DUR", "-5s")
	assert.Equal(t, time.Minute, ParseDuration("VG_TEST_DUR", time.Minute))

	t.Setenv("VG_TEST_LIST", "web, tv ,,ios")
	assert.Equal(t, []string{"web", "tv", "ios"}, ParseStringSlice("VG_TEST_LIST", nil))
}
