// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/viewgate/viewgate/internal/config"
	"github.com/viewgate/viewgate/internal/log"
)

// PerformStartupChecks validates the environment and dependencies before starting the server.
func PerformStartupChecks(_ context.Context, cfg config.Config) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}

	if err := checkTargetedValidations(logger, cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Info().Msg("✅ All startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0750); err != nil {
				return fmt.Errorf("failed to create data directory %s: %w", path, err)
			}
			logger.Info().Str("path", path).Msg("✓ Data directory created")
			return checkDataDirWritable(logger, path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	return checkDataDirWritable(logger, path)
}

func checkDataDirWritable(logger zerolog.Logger, path string) error {
	// Check write permissions by creating a temp file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("✓ Data directory is writable")
	return nil
}

// checkTargetedValidations performs security and runtime-critical validations
func checkTargetedValidations(logger zerolog.Logger, cfg config.Config) error {
	// a. Listen Address (Parseable)
	if cfg.ListenAddr != "" {
		_, port, err := net.SplitHostPort(cfg.ListenAddr)
		if err != nil {
			return fmt.Errorf("invalid listen address %q: %w", cfg.ListenAddr, err)
		}
		portNum, err := strconv.Atoi(port)
		if err != nil || portNum < 0 || portNum > 65535 {
			return fmt.Errorf("invalid listen port %q in %q", port, cfg.ListenAddr)
		}
		logger.Info().Str("addr", cfg.ListenAddr).Msg("✓ Listen address is valid")
	}

	// b. Dedup backend reachability prerequisites
	switch cfg.DedupBackend {
	case "redis":
		if cfg.RedisAddr == "" {
			return fmt.Errorf("dedup backend is redis but VIEWGATE_REDIS_ADDR is empty")
		}
		if _, _, err := net.SplitHostPort(cfg.RedisAddr); err != nil {
			return fmt.Errorf("invalid redis address %q: %w", cfg.RedisAddr, err)
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("✓ Redis address is valid")
	case "badger":
		if cfg.DedupPath != "" && !filepath.IsAbs(cfg.DedupPath) {
			return fmt.Errorf("badger dedup path must be absolute: %s", cfg.DedupPath)
		}
	case "memory":
		logger.Warn().Msg("view dedup uses in-memory backend; dedup state is lost on restart")
	}

	// c. Credential surfaces
	if cfg.AdminToken == "" {
		logger.Warn().Msg("admin token not configured; admin API is disabled")
	}
	if cfg.AuthSecret == "" {
		logger.Warn().Msg("auth secret not configured; all viewers are treated as guests")
	}

	return nil
}
