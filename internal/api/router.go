// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/setlist/internal/auth"
	"github.com/tomtom215/setlist/internal/middleware"
)

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	jwtManager    *auth.JWTManager
}

// NewRouter creates a Router. A nil jwtManager leaves admin routes open.
func NewRouter(handler *Handler, chiMw *ChiMiddleware, jwtManager *auth.JWTManager) *Router {
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: chiMw,
		jwtManager:    jwtManager,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed", nil)
	})

	// Probes and metrics are not rate limited.
	r.Get("/health", router.handler.Health)
	r.Get("/health/live", router.handler.HealthLive)
	r.Get("/health/ready", router.handler.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		r.Post("/api/recommender", router.handler.Recommend)
		r.Get("/model/info", router.handler.ModelInfo)
		r.Get("/model/versions", router.handler.ModelVersions)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(router.jwtManager, auth.RoleAdmin, authErrorResponder))
			r.Post("/reload-model", router.handler.ReloadModel)
			r.Post("/train", router.handler.Train)
		})
	})

	return r
}

func authErrorResponder(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondError(w, r, status, code, message, nil)
}
