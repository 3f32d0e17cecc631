// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/setlist/internal/models"
)

// Health reports service status and the loaded model.
//
// The service is "healthy" once a model is loaded and "degraded" before;
// it still answers 200 so dashboards can tell the two apart.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st := h.engine.Status()

	status := "healthy"
	if !st.Loaded {
		status = "degraded"
	}
	resp := models.HealthResponse{
		Status:       status,
		Service:      ServiceName,
		ModelLoaded:  st.Loaded,
		ModelVersion: st.Version,
		NumRules:     st.NumRules,
		Timestamp:    time.Now().UTC(),
	}
	if st.Cache != nil {
		resp.CacheEntries = &st.Cache.Entries
	}
	respondSuccess(w, r, http.StatusOK, resp, start)
}

// HealthLive always answers 200 while the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"status":         "alive",
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}, time.Now())
}

// HealthReady answers 200 once a model is loaded, 503 before.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Status()
	if !st.Loaded {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeModelUnavailable, "no model loaded", nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"status":        "ready",
		"model_version": st.Version,
	}, time.Now())
}
