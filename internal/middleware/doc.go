// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package middleware provides the HTTP middleware the API router composes.

  - RequestID: X-Request-ID propagation plus request and correlation IDs on
    the logging context
  - AccessLog: one structured zerolog line per request
  - PrometheusMetrics: request counters, latency histograms and in-flight
    gauge labelled by chi route pattern

All middleware use the func(http.Handler) http.Handler shape chi expects:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
