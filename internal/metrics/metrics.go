// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total number of training runs",
		},
		[]string{"status"}, // "success", "failure", "rejected"
	)

	TrainingStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "training_stage_duration_seconds",
			Help:    "Duration of training pipeline stages in seconds",
			Buckets: []float64{.01, .1, .5, 1, 5, 15, 60, 300, 900, 1800},
		},
		[]string{"stage"}, // "fetch", "build", "mine", "rules", "save", "total"
	)

	TrainingTransactions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_transactions",
			Help: "Number of playlists in the last successful training run",
		},
	)

	TrainingItemsets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_itemsets",
			Help: "Number of frequent itemsets in the last successful training run",
		},
	)

	TrainingRules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_rules",
			Help: "Number of association rules in the last successful training run",
		},
	)

	// Model Store Metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_store_operations_total",
			Help: "Total number of model store operations",
		},
		[]string{"backend", "operation", "status"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_store_operation_duration_seconds",
			Help:    "Duration of model store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	// Recommendation Metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"result"}, // "ok", "empty", "invalid_input", "model_unavailable"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_request_duration_seconds",
			Help:    "Duration of rule matching and ranking in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_hits_total",
			Help: "Total number of recommendation cache hits",
		},
	)

	RecommendCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_misses_total",
			Help: "Total number of recommendation cache misses",
		},
	)

	RecommendCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_cache_entries",
			Help: "Unexpired entries in the recommendation cache at the last status check",
		},
	)

	ModelSwaps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_model_swaps_total",
			Help: "Total number of times the loaded model was replaced",
		},
	)

	LoadedModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_loaded_model_version",
			Help: "Version number of the model currently serving recommendations",
		},
	)

	LoadedRules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_loaded_rules",
			Help: "Number of rules in the model currently serving recommendations",
		},
	)

	// Dataset Metrics
	DatasetFetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_fetch_attempts_total",
			Help: "Total number of dataset download attempts",
		},
		[]string{"result"}, // "success", "retryable", "failure", "rejected"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of model-published events sent",
		},
		[]string{"status"},
	)

	EventsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_received_total",
			Help: "Total number of model-published events received",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordTrainingStage records the duration of one pipeline stage.
func RecordTrainingStage(stage string, duration time.Duration) {
	TrainingStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordTrainingRun records a finished training run. Counts are only
// published for successful runs.
func RecordTrainingRun(status string, transactions, itemsets, rules int) {
	TrainingRuns.WithLabelValues(status).Inc()
	if status != "success" {
		return
	}
	TrainingTransactions.Set(float64(transactions))
	TrainingItemsets.Set(float64(itemsets))
	TrainingRules.Set(float64(rules))
}

// RecordStoreOperation records a model store operation.
func RecordStoreOperation(backend, operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreOperations.WithLabelValues(backend, operation, status).Inc()
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordRecommendation records one recommendation request.
func RecordRecommendation(result string, duration time.Duration) {
	RecommendRequests.WithLabelValues(result).Inc()
	RecommendDuration.Observe(duration.Seconds())
}

// RecordRecommendCache records a response cache lookup.
func RecordRecommendCache(hit bool) {
	if hit {
		RecommendCacheHits.Inc()
	} else {
		RecommendCacheMisses.Inc()
	}
}

// SetRecommendCacheEntries sets the recommendation cache size gauge.
func SetRecommendCacheEntries(n int) {
	RecommendCacheEntries.Set(float64(n))
}

// RecordModelSwap records a hot swap of the loaded model.
func RecordModelSwap(version string, rules int) {
	ModelSwaps.Inc()
	if v, err := strconv.ParseFloat(version, 64); err == nil {
		LoadedModelVersion.Set(v)
	}
	LoadedRules.Set(float64(rules))
}

// RecordDatasetFetch records one dataset download attempt.
func RecordDatasetFetch(result string) {
	DatasetFetchAttempts.WithLabelValues(result).Inc()
}

// RecordEventPublish records a model-published event send.
func RecordEventPublish(err error) {
	if err != nil {
		EventsPublished.WithLabelValues("error").Inc()
		return
	}
	EventsPublished.WithLabelValues("success").Inc()
}

// RecordEventReceived records a model-published event delivery.
func RecordEventReceived() {
	EventsReceived.Inc()
}

// Write-ahead log metrics
var (
	WALOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wal_operations_total",
			Help: "Total number of write-ahead log operations",
		},
		[]string{"operation"},
	)

	WALPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wal_pending_entries",
			Help: "Number of journaled events awaiting delivery",
		},
	)

	WALReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wal_replayed_total",
			Help: "Total number of journaled events delivered by the retry loop",
		},
	)
)

// RecordWALOperation records a write-ahead log operation.
func RecordWALOperation(operation string) {
	WALOperations.WithLabelValues(operation).Inc()
}

// SetWALPending sets the pending entry gauge.
func SetWALPending(n int) {
	WALPending.Set(float64(n))
}

// AddWALPending adjusts the pending entry gauge.
func AddWALPending(delta int) {
	WALPending.Add(float64(delta))
}

// RecordWALReplay records an entry delivered on retry.
func RecordWALReplay() {
	WALReplays.Inc()
}
