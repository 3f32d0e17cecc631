// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are package-level variables registered with the default registry
through promauto, and exposed by the API at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

HTTP Metrics:
  - api_requests_total: Total API requests (counter). Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram). Labels: method, endpoint
  - api_active_requests: Requests in flight (gauge)

Training Metrics:
  - training_runs_total: Completed runs (counter). Labels: status
  - training_stage_duration_seconds: Time per pipeline stage (histogram). Labels: stage
  - training_transactions, training_itemsets, training_rules: Last run's counts (gauges)

Model Store Metrics:
  - model_store_operations_total: Store operations (counter). Labels: backend, operation, status
  - model_store_operation_duration_seconds: Store latency (histogram). Labels: backend, operation

Recommendation Metrics:
  - recommend_requests_total: Requests by outcome (counter). Labels: result
  - recommend_request_duration_seconds: Engine latency (histogram)
  - recommend_cache_hits_total, recommend_cache_misses_total: Response cache (counters)
  - recommend_model_swaps_total: Hot swaps of the loaded model (counter)
  - recommend_loaded_model_version, recommend_loaded_rules: Active model (gauges)

Ingestion and Events:
  - dataset_fetch_attempts_total: Download attempts (counter). Labels: result
  - circuit_breaker_state, circuit_breaker_requests_total,
    circuit_breaker_state_transitions_total: Breaker around dataset downloads
  - events_published_total, events_received_total: Model-published notifications
*/
package metrics
