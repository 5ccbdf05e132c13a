// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
tscat serves Qt Linguist translation catalogs over HTTP.

It loads every catalog of a directory, validates it, and answers lookups
for the language each client prefers, falling back to the source text.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/tscat/tscat/config"
	"codeberg.org/tscat/tscat/core/audit"
	"codeberg.org/tscat/tscat/server/middleware/limiter"
	"codeberg.org/tscat/tscat/server/router"
	"codeberg.org/tscat/tscat/server/routes"
	"codeberg.org/tscat/tscat/store"
)

const (
	// Values for http.Server timeouts.
	// ref: gosec: G112
	readHeaderTimeout time.Duration = 15 * time.Second
	readTimeout       time.Duration = 15 * time.Second
	writeTimeout      time.Duration = 30 * time.Second
	idleTimeout       time.Duration = 30 * time.Second

	serverShutdownDeadline time.Duration = 5 * time.Second
)

var errChmodSocket = errors.New("failed to change unix socket permissions")

// main is the entry point of the application.
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

// run orchestrates the application startup and graceful shutdown.
//
//nolint:funlen
func run() error {
	audit.SetDefaultLogger()

	if err := config.Global.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg := config.Global.Catalog

	st, err := store.New(os.DirFS(cfg.Dir), store.Options{
		Domain:            cfg.Domain,
		BaseLocale:        cfg.BaseLocale,
		StrictMissingKeys: config.Global.Internationalization.StrictMissingKeys,
		Concurrency:       cfg.LoadConcurrency,
		CacheSize:         cfg.CacheSize,
		CompressCache:     cfg.CompressCache,
	})
	if err != nil {
		return fmt.Errorf("failed to create catalog store: %w", err)
	}

	api := routes.New(st, config.Global.Basic.ReloadToken)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := loadCatalogs(ctx, api, cfg.AsyncLoad); err != nil {
		return err
	}

	if cfg.ReloadInterval > 0 {
		go reloadPeriodically(ctx, api, cfg.ReloadInterval)
	}

	router := router.NewRouter()
	router.DefineRoutes(api)
	router.RegisterMiddleware(st)

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	// Channel to listen for server errors
	serverErrors := make(chan error, 1)

	go func() {
		listener, err := chooseListener()
		if err != nil {
			serverErrors <- fmt.Errorf("failed to create listener: %w", err)

			return
		}

		serverErrors <- server.Serve(listener)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until a shutdown signal or a server error is received
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case s := <-quit:
		log.Info().Str("signal", s.String()).Msg("Shutdown signal received")

		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownDeadline)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
	}

	if config.Global.Limiter.Enabled {
		limiter.Fini()
	}

	log.Info().Msg("Server exited gracefully")

	return nil
}

// loadCatalogs performs the first catalog load. With async set, the server
// starts right away and serves source text until the load finishes.
func loadCatalogs(ctx context.Context, api *routes.API, async bool) error {
	start := time.Now()

	if !async {
		err := api.Store.Load(ctx)
		api.ObserveInitialLoad(time.Since(start), err)

		if err != nil {
			return fmt.Errorf("failed to load catalogs: %w", err)
		}

		return nil
	}

	done := api.Store.LoadAsync(ctx)

	go func() {
		err := <-done
		api.ObserveInitialLoad(time.Since(start), err)

		if err != nil {
			log.Error().Err(err).Msg("Initial catalog load failed")
		}
	}()

	return nil
}

func reloadPeriodically(ctx context.Context, api *routes.API, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := api.Reload(ctx, ""); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("Periodic catalog reload failed")
			}
		}
	}
}

func chooseListener() (net.Listener, error) {
	// Check if we should use a Unix domain socket
	if config.Global.Basic.UnixSocket != "" {
		unixAddr := config.Global.Basic.UnixSocket

		unixListener, err := (&net.ListenConfig{}).Listen(context.Background(), "unix", unixAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to start Unix socket listener on %v: %w", unixAddr, err)
		}

		if err := os.Chmod(unixAddr, config.Global.Basic.UnixSocketPermissions); err != nil {
			_ = unixListener.Close()

			return nil, fmt.Errorf("%w: %w", errChmodSocket, err)
		}

		log.Info().
			Str("address", unixAddr).
			Msg("Listening on Unix domain socket")

		return unixListener, nil
	}

	addr := net.JoinHostPort(config.Global.Basic.Host, config.Global.Basic.Port)

	tcpListener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start TCP listener on %v: %w", addr, err)
	}

	addr = tcpListener.Addr().String()

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		_ = tcpListener.Close()

		return nil, fmt.Errorf("failed to parse listener address %q: %w", addr, err)
	}

	log.Info().
		Str("address", addr).
		Str("port", port).
		Str("url", fmt.Sprintf("http://localhost:%v/api/v1/languages", port)).
		Msg("Listening on address")

	return tcpListener, nil
}
