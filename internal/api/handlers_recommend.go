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

// Recommend handles POST /api/recommender.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.RecommendRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		// Recommendation clients only distinguish bad input from a missing model.
		apiErr.Code = ErrCodeInvalidInput
		respondAPIError(w, r, apiErr)
		return
	}

	res, err := h.engine.Recommend(r.Context(), req.Songs, req.TopN)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.RecommendResponse{
			Songs:     res.Songs,
			Version:   res.Version,
			ModelDate: res.ModelDate,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   requestID(r),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      res.Cached,
		},
	})
}
