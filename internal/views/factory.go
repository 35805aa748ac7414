// SPDX-License-Identifier: MIT

package views

import (
	"fmt"

	"github.com/rs/zerolog"
)

// DedupBackendConfig selects and configures the dedup store backend.
type DedupBackendConfig struct {
	Backend string // "memory", "redis" or "badger"
	Path    string // badger directory
	Redis   RedisConfig
}

// OpenDedupStore creates a DedupStore based on the backend configuration.
func OpenDedupStore(cfg DedupBackendConfig, logger zerolog.Logger) (DedupStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryDedup(), nil
	case "redis":
		return NewRedisDedup(cfg.Redis, logger)
	case "badger":
		return NewBadgerDedup(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown dedup backend: %s", cfg.Backend)
	}
}
