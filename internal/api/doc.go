// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package api serves the Setlist HTTP API on a chi router.

Endpoints:

	GET  /health            service and model status
	GET  /health/live       liveness probe, always 200
	GET  /health/ready      readiness probe, 503 until a model is loaded
	POST /api/recommender   song recommendations for a list of input songs
	POST /reload-model      load the registry's current model (admin)
	POST /train             run the training pipeline (admin)
	GET  /model/info        current model metadata
	GET  /model/versions    every registered model version
	GET  /metrics           Prometheus metrics

Every JSON response uses the models.APIResponse envelope. Errors carry a
machine-readable code; respondServiceError is the single place that maps
service errors to HTTP status codes.

Example:

	curl -s -X POST localhost:8080/api/recommender \
	    -H 'Content-Type: application/json' \
	    -d '{"songs":["Closer","Roses"],"top_n":5}'
*/
package api
