// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
// It provides consistent structure for both successful and error responses.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"songs": ["Closer", "Roses"], "version": "3.0", "model_date": "2026-10-01T12:00:00Z"},
//	  "metadata": {"timestamp": "2026-10-19T12:00:00Z", "request_id": "..."}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "MODEL_UNAVAILABLE", "message": "no model loaded"},
//	  "metadata": {"timestamp": "2026-10-19T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Malformed request body or parameters
//   - INVALID_INPUT: Recommendation request without usable songs
//   - INVALID_DATASET: Training dataset rejected
//   - MODEL_UNAVAILABLE: No model loaded in the recommender
//   - NO_MODEL: No model has been trained yet
//   - TRAINING_IN_PROGRESS: Another training run holds the store
//   - AUTHENTICATION_ERROR: Missing or invalid admin token
//   - RATE_LIMIT_EXCEEDED: Too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// RecommendRequest is the body of POST /api/recommender.
type RecommendRequest struct {
	Songs []string `json:"songs" validate:"required,max=100,dive,notblank,max=500"`
	TopN  int      `json:"top_n,omitempty" validate:"omitempty,lte=1000"`
}

// RecommendResponse is the data payload of a successful recommendation.
type RecommendResponse struct {
	Songs     []string  `json:"songs"`
	Version   string    `json:"version"`
	ModelDate time.Time `json:"model_date"`
}

// TrainRequest is the body of POST /train. Zero values fall back to
// configuration, except min_confidence, where an explicit 0 keeps every rule.
type TrainRequest struct {
	DatasetURL     string   `json:"dataset_url,omitempty" validate:"omitempty,url,max=2048"`
	DatasetName    string   `json:"dataset_name,omitempty" validate:"omitempty,max=200"`
	DatasetVersion string   `json:"dataset_version,omitempty" validate:"omitempty,max=100"`
	MinSupport     float64  `json:"min_support,omitempty" validate:"omitempty,gt=0,lte=1"`
	MinConfidence  *float64 `json:"min_confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	MaxItemsetSize int      `json:"max_itemset_size,omitempty" validate:"omitempty,min=1,max=10"`
}

// TrainResponse reports a completed training run.
type TrainResponse struct {
	Version      string       `json:"version"`
	ModelPath    string       `json:"model_path"`
	Timestamp    time.Time    `json:"timestamp"`
	NumRules     int          `json:"num_rules"`
	NumItemsets  int          `json:"num_itemsets"`
	DurationMS   int64        `json:"duration_ms"`
	DatasetStats DatasetStats `json:"dataset_stats"`
	Params       MiningParams `json:"params"`
}

// ModelInfoResponse is the data payload of GET /model/info.
type ModelInfoResponse struct {
	CurrentVersion    string    `json:"current_version"`
	LastModified      time.Time `json:"last_modified"`
	ModelPath         string    `json:"model_path"`
	NumRules          int       `json:"num_rules"`
	NumItemsets       int       `json:"num_itemsets"`
	AvailableVersions []string  `json:"available_versions"`
}

// HealthResponse is the data payload of GET /health.
type HealthResponse struct {
	Status       string    `json:"status"`
	Service      string    `json:"service"`
	ModelLoaded  bool      `json:"model_loaded"`
	ModelVersion string    `json:"model_version,omitempty"`
	NumRules     int       `json:"num_rules"`
	CacheEntries *int      `json:"cache_entries,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReloadResponse is the data payload of POST /reload-model.
type ReloadResponse struct {
	Version   string    `json:"version"`
	ModelDate time.Time `json:"model_date"`
	NumRules  int       `json:"num_rules"`
}

// ModelVersionsResponse is the data payload of GET /model/versions.
type ModelVersionsResponse struct {
	CurrentVersion string      `json:"current_version"`
	Versions       []ModelInfo `json:"versions"`
}
