// SPDX-License-Identifier: MIT

package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/viewgate/viewgate/internal/entitle"
	xglog "github.com/viewgate/viewgate/internal/log"
)

// Holder holds the current settings with atomic swap semantics and
// supports hot reloading from file. Reads return a snapshot; staleness of
// one request is acceptable by design.
type Holder struct {
	mu      sync.RWMutex
	current entitle.Settings
	path    string
	logger  zerolog.Logger

	listenerMu sync.RWMutex
	listeners  []chan<- entitle.Settings
}

// NewHolder creates a holder seeded with the initial settings.
func NewHolder(initial entitle.Settings, path string) *Holder {
	return &Holder{
		current: initial,
		path:    path,
		logger:  xglog.WithComponent("settings"),
	}
}

// Snapshot returns the current settings (thread-safe read).
func (h *Holder) Snapshot() entitle.Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Update persists new settings atomically and swaps them in. Either both
// succeed or the old settings remain in effect.
func (h *Holder) Update(s entitle.Settings) error {
	if err := Save(h.path, s); err != nil {
		return err
	}
	h.swap(s, "admin")
	return nil
}

// Reload re-reads the settings file and swaps the result in.
func (h *Holder) Reload(_ context.Context) error {
	s, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).
			Str("event", "settings.reload_failed").
			Msg("failed to reload settings")
		return fmt.Errorf("reload settings: %w", err)
	}
	h.swap(s, "file")
	return nil
}

// RegisterListener subscribes to settings swaps. Delivery is best-effort:
// a slow listener never blocks a reload.
func (h *Holder) RegisterListener(ch chan<- entitle.Settings) {
	h.listenerMu.Lock()
	defer h.listenerMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) swap(s entitle.Settings, source string) {
	h.mu.Lock()
	h.current = s
	h.mu.Unlock()

	h.logger.Info().
		Str("event", "settings.applied").
		Str("source", source).
		Bool("open_access", s.OpenAccess).
		Bool("block_all", s.BlockAll).
		Int("disabled_platforms", len(s.DisabledPlatforms)).
		Msg("settings applied")

	h.listenerMu.RLock()
	defer h.listenerMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- s:
		default:
		}
	}
}

// StartWatcher watches the settings file and reloads on change until ctx
// is cancelled. Editors and atomic rewrites produce rename/create events,
// so the watch is placed on the parent directory.
func (h *Holder) StartWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(h.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := h.Reload(ctx); err != nil {
					h.logger.Warn().Err(err).
						Str("event", "settings.watch_reload_failed").
						Msg("settings file changed but reload failed, keeping previous settings")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				h.logger.Warn().Err(err).
					Str("event", "settings.watch_error").
					Msg("settings watcher error")
			}
		}
	}()

	h.logger.Info().
		Str("event", "settings.watcher_started").
		Str(xglog.FieldPath, h.path).
		Msg("watching settings file")
	return nil
}
