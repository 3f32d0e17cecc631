// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package events

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/setlist/internal/models"
)

// DefaultSubject is the subject model-published events use.
const DefaultSubject = "setlist.models.published"

// ErrInvalidEvent is returned for events missing required fields.
var ErrInvalidEvent = errors.New("invalid event")

// ModelPublished announces a newly saved model version.
type ModelPublished struct {
	Version     string    `json:"version"`
	Path        string    `json:"path"`
	Timestamp   time.Time `json:"timestamp"`
	NumRules    int       `json:"num_rules"`
	NumItemsets int       `json:"num_itemsets"`
}

// NewModelPublished builds an event from registry metadata.
func NewModelPublished(info *models.ModelInfo) *ModelPublished {
	return &ModelPublished{
		Version:     info.Version,
		Path:        info.Path,
		Timestamp:   info.Timestamp,
		NumRules:    info.NumRules,
		NumItemsets: info.NumItemsets,
	}
}

// Validate checks required fields.
func (e *ModelPublished) Validate() error {
	if strings.TrimSpace(e.Version) == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidEvent)
	}
	if _, err := models.ParseVersion(e.Version); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if e.NumRules < 0 || e.NumItemsets < 0 {
		return fmt.Errorf("%w: negative counts", ErrInvalidEvent)
	}
	return nil
}

// Marshal validates and encodes an event.
func Marshal(e *ModelPublished) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// Unmarshal decodes and validates an event.
func Unmarshal(data []byte) (*ModelPublished, error) {
	var e ModelPublished
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
