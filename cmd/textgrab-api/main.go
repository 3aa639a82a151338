// Package main provides the textgrab API server entrypoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/spherical/textgrab/internal/app"
	"github.com/spherical/textgrab/internal/config"
	"github.com/spherical/textgrab/internal/observability"
)

func main() {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfgPath := flag.String("config", os.Getenv("CONFIG_PATH"), "config file path")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("Server error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to release resources")
		}
	}()

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("language", cfg.OCR.Language).
		Str("cache", cfg.Cache.Driver).
		Str("history", cfg.History.Driver).
		Msg("Starting textgrab API")

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      NewRouter(a),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
			return srv.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Msg("Server stopped")
	return nil
}
