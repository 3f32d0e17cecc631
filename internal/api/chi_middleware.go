// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/setlist/internal/middleware"
)

// corsMaxAge is how long browsers may cache a preflight response, in seconds.
const corsMaxAge = 86400

// ChiMiddlewareConfig configures CORS and per-client rate limiting.
type ChiMiddlewareConfig struct {
	// CORSAllowedOrigins lists browser origins allowed to call the API.
	// "*" allows any origin.
	CORSAllowedOrigins []string

	// RateLimitRequests requests are allowed per client per RateLimitWindow.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// RateLimitKeyFunc identifies the client. Nil means the remote IP.
	RateLimitKeyFunc httprate.KeyFunc
}

// DefaultChiMiddlewareConfig allows any origin and 100 requests a minute.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
	}
}

// NewChiMiddlewareConfig maps the security settings.
func NewChiMiddlewareConfig(corsOrigins []string, rateLimitReqs int, rateLimitWindow time.Duration, rateLimitDisabled bool) *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: corsOrigins,
		RateLimitRequests:  rateLimitReqs,
		RateLimitWindow:    rateLimitWindow,
		RateLimitDisabled:  rateLimitDisabled,
	}
}

// ChiMiddleware builds the CORS and rate limit handlers for the router.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware for config. A nil config uses
// DefaultChiMiddlewareConfig.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}
	// The recommender is GET and the admin endpoints are POST; the only
	// custom headers are the bearer token and the request ID.
	opts := cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         corsMaxAge,
	}
	return &ChiMiddleware{config: config, cors: cors.Handler(opts)}
}

// CORS returns the go-chi/cors handler.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit limits each client with httprate. Rejected requests get the
// rate_limited error envelope. When disabled it passes requests through.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}

	key := m.config.RateLimitKeyFunc
	if key == nil {
		key = httprate.KeyByIP
	}
	limited := func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded", nil)
	}

	return httprate.Limit(m.config.RateLimitRequests, m.config.RateLimitWindow,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(limited),
	)
}
