// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package models

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// InitialVersion is the registry version before any model has been saved.
const InitialVersion = "0.0"

// ModelInfo is the registry entry of one persisted model.
type ModelInfo struct {
	Version     string    `json:"version"`
	Path        string    `json:"path"`
	Timestamp   time.Time `json:"timestamp"`
	NumRules    int       `json:"num_rules"`
	NumItemsets int       `json:"num_itemsets"`
	Checksum    string    `json:"checksum,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
}

// Registry maps version labels to their metadata and names the current version.
type Registry struct {
	CurrentVersion string               `json:"current_version"`
	Models         map[string]ModelInfo `json:"models"`
}

// NewRegistry returns an empty registry at InitialVersion.
func NewRegistry() *Registry {
	return &Registry{
		CurrentVersion: InitialVersion,
		Models:         make(map[string]ModelInfo),
	}
}

// HasModel reports whether the current version points at a saved model.
func (r *Registry) HasModel() bool {
	if r == nil || r.CurrentVersion == InitialVersion {
		return false
	}
	_, ok := r.Models[r.CurrentVersion]
	return ok
}

// Clone returns a deep copy.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		CurrentVersion: r.CurrentVersion,
		Models:         make(map[string]ModelInfo, len(r.Models)),
	}
	for k, v := range r.Models {
		c.Models[k] = v
	}
	return c
}

// Versions returns all registered versions in ascending numeric order.
func (r *Registry) Versions() []string {
	out := make([]string, 0, len(r.Models))
	for v := range r.Models {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		a, errA := ParseVersion(out[i])
		b, errB := ParseVersion(out[j])
		if errA != nil || errB != nil {
			return out[i] < out[j]
		}
		return a < b
	})
	return out
}

// ParseVersion parses a version label such as "3.0".
func ParseVersion(label string) (float64, error) {
	v, err := strconv.ParseFloat(label, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("invalid version label %q", label)
	}
	return v, nil
}

// FormatVersion renders an integer version as "N.0".
func FormatVersion(n int) string {
	return strconv.Itoa(n) + ".0"
}

// NextVersion returns floor(current)+1 rendered as "N.0".
func NextVersion(current string) (string, error) {
	v, err := ParseVersion(current)
	if err != nil {
		return "", err
	}
	return FormatVersion(int(math.Floor(v)) + 1), nil
}
