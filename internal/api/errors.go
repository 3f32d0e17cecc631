// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/recommend/eclat"
	"github.com/tomtom215/setlist/internal/recommend/storage"
	"github.com/tomtom215/setlist/internal/recommend/training"
)

// Error codes returned in APIError.Code.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeInvalidURL         = "INVALID_URL"
	ErrCodeInvalidParameter   = "INVALID_PARAMETER"
	ErrCodeInvalidDataset     = "INVALID_DATASET"
	ErrCodeNoDatasetSource    = "NO_DATASET_SOURCE"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeNoModel            = "NO_MODEL"
	ErrCodeModelNotFound      = "MODEL_NOT_FOUND"
	ErrCodeModelUnavailable   = "MODEL_UNAVAILABLE"
	ErrCodeTrainingInProgress = "TRAINING_IN_PROGRESS"
	ErrCodeTrainingDisabled   = "TRAINING_DISABLED"
	ErrCodeVersionConflict    = "VERSION_CONFLICT"
	ErrCodeDatasetFetch       = "DATASET_FETCH_FAILED"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeRequestCanceled    = "REQUEST_CANCELED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// statusClientClosedRequest is the nginx convention for a client that went away.
const statusClientClosedRequest = 499

// serviceErrorMapping maps a sentinel error to its response. Order matters:
// the first match wins, so wrapped errors list the more specific sentinel
// first.
var serviceErrorMapping = []struct {
	target error
	status int
	code   string
}{
	{recommend.ErrInvalidInput, http.StatusBadRequest, ErrCodeInvalidInput},
	{recommend.ErrModelUnavailable, http.StatusServiceUnavailable, ErrCodeModelUnavailable},
	{training.ErrTrainingInProgress, http.StatusConflict, ErrCodeTrainingInProgress},
	{training.ErrNoDatasetSource, http.StatusBadRequest, ErrCodeNoDatasetSource},
	{eclat.ErrInvalidParameter, http.StatusBadRequest, ErrCodeInvalidParameter},
	{eclat.ErrInvalidDataset, http.StatusBadRequest, ErrCodeInvalidDataset},
	{dataset.ErrUnsupportedSource, http.StatusBadRequest, ErrCodeInvalidURL},
	{dataset.ErrFetchFailed, http.StatusBadGateway, ErrCodeDatasetFetch},
	{storage.ErrNoModel, http.StatusNotFound, ErrCodeNoModel},
	{storage.ErrModelNotFound, http.StatusNotFound, ErrCodeModelNotFound},
	{storage.ErrVersionConflict, http.StatusConflict, ErrCodeVersionConflict},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout},
	{context.Canceled, statusClientClosedRequest, ErrCodeRequestCanceled},
}

// respondServiceError maps a service error to a status code and error code.
// Unknown errors become 500 without leaking their text to the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range serviceErrorMapping {
		if errors.Is(err, m.target) {
			var logErr error
			if m.status >= http.StatusInternalServerError {
				logErr = err
			}
			respondError(w, r, m.status, m.code, err.Error(), logErr)
			return
		}
	}
	respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "internal server error", err)
}
