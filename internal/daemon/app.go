// SPDX-License-Identifier: MIT

// Package daemon owns the long-lived runtime lifecycle: the HTTP server,
// the presence sweeper, the view persistence worker and settings reload
// wiring.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/viewgate/viewgate/internal/config"
	"github.com/viewgate/viewgate/internal/log"
	"github.com/viewgate/viewgate/internal/presence"
	"github.com/viewgate/viewgate/internal/settings"
	"github.com/viewgate/viewgate/internal/store"
	"github.com/viewgate/viewgate/internal/telemetry"
	"github.com/viewgate/viewgate/internal/views"
)

// ShutdownHook performs cleanup during graceful shutdown.
// Hooks are executed in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Deps carries the subsystems owned by the daemon.
type Deps struct {
	Config   config.Config
	Handler  http.Handler
	Settings *settings.Holder
	Presence *presence.Tracker
	Views    *views.Counter

	// Closed during shutdown, after the HTTP server has drained.
	Store store.ChannelStore
	Dedup views.DedupStore

	// Telemetry is optional.
	Telemetry *telemetry.Provider
}

// Validate reports missing required dependencies.
func (d Deps) Validate() error {
	if d.Handler == nil {
		return errors.New("missing HTTP handler")
	}
	if d.Settings == nil {
		return errors.New("missing settings holder")
	}
	if d.Presence == nil {
		return errors.New("missing presence tracker")
	}
	if d.Views == nil {
		return errors.New("missing view counter")
	}
	return nil
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// App orchestrates all background subsystems.
type App struct {
	deps          Deps
	logger        zerolog.Logger
	reloadSignal  os.Signal
	shutdownHooks []namedHook
}

// NewApp creates a new App orchestrator.
func NewApp(deps Deps) (*App, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	a := &App{
		deps:         deps,
		logger:       log.WithComponent("daemon"),
		reloadSignal: syscall.SIGHUP,
	}

	if deps.Store != nil {
		a.RegisterShutdownHook("store", func(_ context.Context) error {
			return deps.Store.Close()
		})
	}
	if deps.Dedup != nil {
		a.RegisterShutdownHook("dedup", func(_ context.Context) error {
			return deps.Dedup.Close()
		})
	}
	if deps.Telemetry != nil {
		a.RegisterShutdownHook("telemetry", deps.Telemetry.Shutdown)
	}

	return a, nil
}

// RegisterShutdownHook registers a cleanup function run during shutdown.
func (a *App) RegisterShutdownHook(name string, hook ShutdownHook) {
	a.shutdownHooks = append(a.shutdownHooks, namedHook{name: name, hook: hook})
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	// Settings watcher is best-effort: startup should not fail if the
	// watcher cannot be started.
	if err := a.deps.Settings.StartWatcher(ctx); err != nil {
		a.logger.Warn().Err(err).
			Str("event", "settings.watcher_start_failed").
			Msg("failed to start settings watcher")
	}

	// SIGHUP trigger for manual settings reload.
	if a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "settings.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading settings")

					if err := a.deps.Settings.Reload(context.Background()); err != nil {
						a.logger.Warn().Err(err).
							Str("event", "settings.reload_failed").
							Msg("settings reload failed")
					}
				}
			}
		})
	}

	// Presence sweeper (stops via ctx).
	g.Go(func() error {
		a.deps.Presence.Run(ctx, a.deps.Config.SweepInterval)
		return nil
	})

	// View persistence worker (drains its queue on ctx cancel).
	g.Go(func() error {
		a.deps.Views.Run(ctx)
		return nil
	})

	// HTTP server lifecycle.
	g.Go(func() error {
		return a.serve(ctx)
	})

	err := g.Wait()
	a.runShutdownHooks()
	return err
}

// serve runs the HTTP server until ctx is cancelled, then drains it.
func (a *App) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.deps.Config.ListenAddr,
		Handler:           a.deps.Handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info().
			Str("addr", srv.Addr).
			Msg("API server listening (HTTP)")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	// Bounded shutdown context independent from caller cancellation.
	timeout := a.deps.Config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	a.logger.Info().Msg("Shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}
	return nil
}

// runShutdownHooks executes all registered hooks in LIFO order.
// Hook failures are logged, never fatal.
func (a *App) runShutdownHooks() {
	for i := len(a.shutdownHooks) - 1; i >= 0; i-- {
		h := a.shutdownHooks[i]
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := h.hook(ctx); err != nil {
			a.logger.Warn().Err(err).
				Str("event", "shutdown.hook_failed").
				Str("hook", h.name).
				Msg("shutdown hook failed")
		}
		cancel()
	}
	a.logger.Info().Msg("Shutdown complete")
}
