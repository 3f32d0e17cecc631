// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"errors"
	"time"

	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/recommend/storage"
	"github.com/tomtom215/setlist/internal/recommend/training"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "setlist"

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: health and readiness probes
//   - handlers_recommend.go: recommendation endpoint
//   - handlers_model.go: model info, versions, reload and training
type Handler struct {
	engine       *recommend.Engine
	store        storage.Store
	trainer      *training.Trainer
	trainTimeout time.Duration
	startTime    time.Time
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	Engine  *recommend.Engine
	Store   storage.Store
	Trainer *training.Trainer

	// TrainTimeout bounds a /train request. Zero means 30 minutes.
	TrainTimeout time.Duration
}

// NewHandler creates a Handler. Trainer may be nil, in which case /train
// responds 503.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Engine == nil {
		return nil, errors.New("api: engine is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("api: store is required")
	}
	if cfg.TrainTimeout <= 0 {
		cfg.TrainTimeout = 30 * time.Minute
	}
	return &Handler{
		engine:       cfg.Engine,
		store:        cfg.Store,
		trainer:      cfg.Trainer,
		trainTimeout: cfg.TrainTimeout,
		startTime:    time.Now(),
	}, nil
}
