// Disaster Response Coordination Platform
// Copyright 2026 Vagish Maurya (Vagishmaurya)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Vagishmaurya/disaster-management

// Package main is the entry point for the disaster management server.
//
// The server coordinates disaster reports from citizens and responders:
// disaster records with append-only audit trails, citizen situation reports
// with image verification, a cache-aside enrichment pipeline (location
// extraction, geocoding, social media and official update aggregation,
// nearby relief resources), and room-scoped WebSocket fan-out for real-time
// updates.
//
// Startup order:
//
//  1. Configuration: koanf v2 layering defaults, config.yaml, environment
//  2. Storage: BadgerDB document store (in-memory when STORE_PATH is empty)
//  3. Enrichment: TTL cache plus circuit-broken provider pipeline
//  4. WebSocket hub and HTTP server under a suture supervision tree
//
// The server shuts down gracefully on SIGINT/SIGTERM, draining in-flight
// requests within SHUTDOWN_TIMEOUT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vagishmaurya/disaster-management/internal/api"
	"github.com/Vagishmaurya/disaster-management/internal/cache"
	"github.com/Vagishmaurya/disaster-management/internal/config"
	"github.com/Vagishmaurya/disaster-management/internal/enrichment"
	"github.com/Vagishmaurya/disaster-management/internal/logging"
	"github.com/Vagishmaurya/disaster-management/internal/store"
	"github.com/Vagishmaurya/disaster-management/internal/supervisor"
	"github.com/Vagishmaurya/disaster-management/internal/supervisor/services"
	ws "github.com/Vagishmaurya/disaster-management/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("store_path", cfg.Store.Path).
		Bool("rate_limit_disabled", cfg.RateLimit.Disabled).
		Msg("Starting disaster management server")

	st, db, err := store.OpenBadger(cfg.Store.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	if cfg.Store.Path == "" {
		logging.Warn().Msg("STORE_PATH is empty, using in-memory storage; data is lost on restart")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	enrich := enrichment.NewService(cache.NewMemory(ctx, cfg.Cache.SweepInterval), st, enrichment.Options{
		TTLs: enrichment.TTLs{
			Geocode: cfg.Enrichment.GeocodeTTL,
			Default: cfg.Enrichment.DefaultTTL,
		},
		Timeout: cfg.Enrichment.ProviderTimeout,
	})

	hub := ws.NewHub()
	server := api.NewServer(cfg, st, enrich, hub)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Routes(api.NewChiMiddleware(cfg)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
