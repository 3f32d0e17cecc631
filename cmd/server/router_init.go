// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/api"
	"github.com/tomtom215/setlist/internal/app"
	"github.com/tomtom215/setlist/internal/auth"
	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/events"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/supervisor/services"
)

// buildRouter wires the API handlers, CORS, rate limiting and admin auth.
func buildRouter(cfg *config.Config, engine *recommend.Engine, c *app.Components) (http.Handler, error) {
	h, err := api.NewHandler(api.HandlerConfig{
		Engine:       engine,
		Store:        c.Store,
		Trainer:      c.Trainer,
		TrainTimeout: cfg.Training.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create API handler: %w", err)
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	if slices.Contains(cfg.Security.CORSOrigins, "*") {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins in production")
	}

	var jwtManager *auth.JWTManager
	if cfg.Security.AdminJWTSecret != "" {
		jwtManager, err = auth.NewJWTManager(cfg.Security.AdminJWTSecret, cfg.Security.AdminTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("create JWT manager: %w", err)
		}
		logging.Info().Msg("Admin routes require a bearer token")
	} else {
		logging.Warn().Msg("ADMIN_JWT_SECRET is unset; /train and /reload-model are open")
	}

	chiMw := api.NewChiMiddleware(api.NewChiMiddlewareConfig(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	))
	return api.NewRouter(h, chiMw, jwtManager).SetupChi(), nil
}

// newModelSubscriber reloads the engine for every model-published event.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func newModelSubscriber(c *app.Components, subject string, reload services.ReloadFunc, logger zerolog.Logger) *events.Subscriber {
	return events.NewSubscriber(c.NATS, subject, func(ctx context.Context, ev *events.ModelPublished) error {
		logging.Ctx(ctx).Info().Str("version", ev.Version).Msg("Model published, reloading")
		return reload(ctx)
	}, logger)
}
