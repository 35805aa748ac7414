// SPDX-License-Identifier: MIT

// Package ratelimit throttles heartbeat and view ingest per client IP.
package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var rateLimitExceeded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "viewgate",
		Name:      "ratelimit_exceeded_total",
		Help:      "Total rate limit rejections",
	},
	[]string{"limit_type"},
)

// Config holds rate limiting configuration.
type Config struct {
	PerIPRate  rate.Limit // events per second per IP
	PerIPBurst int

	// CleanupInterval bounds the per-IP limiter map.
	CleanupInterval time.Duration
}

// DefaultConfig allows one heartbeat every ~12 seconds sustained with a
// burst for reconnect storms. Players beat every 30-60s, so this is
// generous for legitimate traffic.
func DefaultConfig() Config {
	return Config{
		PerIPRate:       5,
		PerIPBurst:      10,
		CleanupInterval: 5 * time.Minute,
	}
}

// Limiter manages per-IP token buckets for engagement ingest.
type Limiter struct {
	config Config

	mu          sync.Mutex
	perIP       map[string]*rate.Limiter
	lastCleanup time.Time
}

// New creates a limiter with the given config.
func New(config Config) *Limiter {
	return &Limiter{
		config:      config,
		perIP:       make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}
}

// Allow reports whether one more event from this IP is within limits.
func (l *Limiter) Allow(clientIP string) bool {
	if !l.getIPLimiter(clientIP).Allow() {
		rateLimitExceeded.WithLabelValues("per_ip").Inc()
		return false
	}
	l.maybeCleanup()
	return true
}

func (l *Limiter) getIPLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.perIP[ip]
	if !exists {
		limiter = rate.NewLimiter(l.config.PerIPRate, l.config.PerIPBurst)
		l.perIP[ip] = limiter
	}
	return limiter
}

// maybeCleanup resets the per-IP map once the cleanup interval passed.
// Dropping all buckets is acceptable: refilling starts from full burst.
func (l *Limiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastCleanup) < l.config.CleanupInterval {
		return
	}
	l.perIP = make(map[string]*rate.Limiter)
	l.lastCleanup = time.Now()
}
