// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package main is the entry point for the feedvault server: a NuGet-
// compatible package feed storage engine. It loads configuration, opens
// the repository at the configured archive root, wires the HTTP surface,
// and serves under a suture supervisor tree with graceful shutdown on
// SIGINT/SIGTERM.
//
// Configuration is loaded via Koanf v2 (see internal/feedconfig), layered
// defaults -> feedvault.yaml -> FEEDVAULT_-prefixed environment
// variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/feedvault/internal/feedapi"
	"github.com/tomtom215/feedvault/internal/feedauth"
	"github.com/tomtom215/feedvault/internal/feedconfig"
	"github.com/tomtom215/feedvault/internal/fsx"
	"github.com/tomtom215/feedvault/internal/logging"
	"github.com/tomtom215/feedvault/internal/repository"
	"github.com/tomtom215/feedvault/internal/supervisor"
	"github.com/tomtom215/feedvault/internal/supervisor/services"
)

//	@title			FeedVault API
//	@version		1.0
//	@description	NuGet-compatible package feed storage engine: push, remove, list, search, and update-check over a local archive directory.
//	@description
//	@description	## Authentication
//	@description
//	@description	Push and remove routes require either the X-NuGet-ApiKey header or an Authorization: Bearer JWT, depending on configuration.
//
//	@contact.name	GitHub Repository
//	@contact.url	https://github.com/tomtom215/feedvault
//
//	@license.name	AGPL-3.0-or-later
//	@license.url	https://www.gnu.org/licenses/agpl-3.0.en.html
//
//	@BasePath	/
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-NuGet-ApiKey
func main() {
	cfg, err := feedconfig.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("archiveRoot", cfg.ArchiveRoot).Msg("starting feedvault")

	repo, err := repository.New(cfg.ArchiveRoot, fsx.NewLocal(), cfg.Repository)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open repository")
	}
	defer func() {
		if err := repo.Dispose(); err != nil {
			logging.Error().Err(err).Msg("error disposing repository")
		}
	}()

	var apiKeys *feedauth.APIKeyAuthenticator
	if cfg.Security.APIKeyHash != "" {
		apiKeys = feedauth.NewAPIKeyAuthenticator(cfg.Security.APIKeyHash)
	} else {
		apiKeys = feedauth.NewAPIKeyAuthenticator("")
	}

	var jwtMgr *feedauth.JWTManager
	if cfg.Security.JWTEnabled {
		jwtMgr, err = feedauth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTTokenTTL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to initialize JWT manager")
		}
	}

	handler := feedapi.NewHandler(repo)
	router := feedapi.NewRouter(handler, feedapi.RouterConfig{
		APIKeys:    apiKeys,
		JWTManager: jwtMgr,
		Middleware: feedapi.MiddlewareConfig{
			CORSAllowedOrigins: cfg.Security.CORSAllowedOrigins,
			RateLimitRequests:  cfg.Security.RateLimitRequests,
			RateLimitWindow:    cfg.Security.RateLimitWindow,
			RateLimitDisabled:  cfg.Security.RateLimitDisabled,
		},
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("serving")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("service failed to stop within timeout")
	}

	logging.Info().Msg("feedvault stopped gracefully")
}
