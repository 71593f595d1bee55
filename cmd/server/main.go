// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/parlor-chat/parlor/internal/api"
	"github.com/parlor-chat/parlor/internal/config"
	"github.com/parlor-chat/parlor/internal/gateway"
	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/store"
	"github.com/parlor-chat/parlor/internal/supervisor"
	"github.com/parlor-chat/parlor/internal/supervisor/services"
)

//nolint:gocyclo // sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("environment", cfg.Server.Environment).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Starting Parlor with supervisor tree")

	users, err := store.Open(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open user store")
	}
	defer func() {
		if err := users.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing user store")
		}
	}()

	// No connection survives a restart.
	if reset, err := users.ResetOnline(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Failed to reset online flags")
	} else if reset > 0 {
		logging.Info().Int("users", reset).Msg("Cleared stale online flags")
	}

	var validator gateway.SessionValidator = users
	if cfg.Store.Breaker.Enabled {
		validator = store.NewBreakerValidator(users, cfg.Store.Breaker)
		logging.Info().Uint32("failure_threshold", cfg.Store.Breaker.FailureThreshold).Msg("Session lookups guarded by circuit breaker")
	}

	gw := gateway.New(cfg.Gateway, validator, gateway.WithOnlineRecorder(users))

	natsComponents, err := InitNATS(cfg, gw)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS")
	}
	defer natsComponents.Close()

	var publisher api.InvalidationPublisher
	if pub := natsComponents.Publisher(); pub != nil {
		publisher = pub
	}

	var adminAuth *api.AdminAuth
	if cfg.Security.AdminJWTSecret != "" {
		adminAuth, err = api.NewAdminAuth(cfg.Security.AdminJWTSecret)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize admin authentication")
		}
		logging.Info().Msg("Admin API enabled")
	} else {
		logging.Warn().Msg("Admin API disabled (ADMIN_JWT_SECRET not set)")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	handler := api.NewHandler(cfg, gw, users, publisher)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(cfg.Security)), adminAuth)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddGatewayService(services.NewGatewayService(gw))
	AddNATSToSupervisor(tree, natsComponents, cfg.Supervisor.ShutdownTimeout)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logging.Info().Str("addr", server.Addr).Msg("Supervisor tree starting")
	errCh := tree.ServeBackground(ctx)

	<-ctx.Done()
	logging.Info().Msg("Shutdown signal received, stopping services")

	if err := <-errCh; err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	if report, err := tree.UnstoppedServiceReport(); err != nil {
		logging.Warn().Err(err).Msg("Could not collect unstopped service report")
	} else {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Parlor stopped")
}
