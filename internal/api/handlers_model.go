// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/recommend/storage"
	"github.com/tomtom215/setlist/internal/recommend/training"
)

// ModelInfo handles GET /model/info.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	reg, err := h.store.Registry(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !reg.HasModel() {
		respondServiceError(w, r, storage.ErrNoModel)
		return
	}
	info := reg.Models[reg.CurrentVersion]

	respondSuccess(w, r, http.StatusOK, models.ModelInfoResponse{
		CurrentVersion:    reg.CurrentVersion,
		LastModified:      info.Timestamp,
		ModelPath:         info.Path,
		NumRules:          info.NumRules,
		NumItemsets:       info.NumItemsets,
		AvailableVersions: reg.Versions(),
	}, start)
}

// ModelVersions handles GET /model/versions.
func (h *Handler) ModelVersions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	reg, err := h.store.Registry(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	labels := reg.Versions()
	versions := make([]models.ModelInfo, 0, len(labels))
	for _, v := range labels {
		versions = append(versions, reg.Models[v])
	}
	respondSuccess(w, r, http.StatusOK, models.ModelVersionsResponse{
		CurrentVersion: reg.CurrentVersion,
		Versions:       versions,
	}, start)
}

// ReloadModel handles POST /reload-model.
func (h *Handler) ReloadModel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	info, err := h.engine.Reload(r.Context(), h.store)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("version", info.Version).Msg("Model reloaded via API")

	respondSuccess(w, r, http.StatusOK, models.ReloadResponse{
		Version:   info.Version,
		ModelDate: info.Timestamp,
		NumRules:  info.NumRules,
	}, start)
}

// Train handles POST /train. The run is synchronous; the response carries
// the saved version.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.trainer == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeTrainingDisabled, "training is not enabled on this server", nil)
		return
	}

	var req models.TrainRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, apiErr)
		return
	}
	if req.DatasetURL != "" {
		if err := dataset.ValidateURL(req.DatasetURL); err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeInvalidURL, err.Error(), nil)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.trainTimeout)
	defer cancel()

	res, err := h.trainer.Train(ctx, training.Request{
		DatasetURL:     req.DatasetURL,
		DatasetName:    req.DatasetName,
		DatasetVersion: req.DatasetVersion,
		MinSupport:     req.MinSupport,
		MinConfidence:  req.MinConfidence,
		MaxItemsetSize: req.MaxItemsetSize,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, models.TrainResponse{
		Version:      res.Info.Version,
		ModelPath:    res.Info.Path,
		Timestamp:    res.Info.Timestamp,
		NumRules:     res.Info.NumRules,
		NumItemsets:  res.Info.NumItemsets,
		DurationMS:   res.Duration.Milliseconds(),
		DatasetStats: res.Stats,
		Params:       res.Params,
	}, start)
}
