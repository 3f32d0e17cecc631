// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package storage

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/models"
)

var (
	// ErrModelNotFound is returned when a version is not registered or its
	// payload is missing or corrupt.
	ErrModelNotFound = errors.New("model not found")

	// ErrNoModel is returned when no model has been trained yet.
	ErrNoModel = errors.New("no model trained yet")

	// ErrVersionConflict is returned when saving under a label that exists
	// or does not advance the registry.
	ErrVersionConflict = errors.New("version conflict")

	// ErrRegistryCorrupt is returned when the registry document cannot be decoded.
	ErrRegistryCorrupt = errors.New("model registry corrupt")
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Store persists trained models under monotonically increasing versions.
type Store interface {
	// NextVersion returns the label the next Save should use.
	NextVersion(ctx context.Context) (string, error)

	// Save persists model under version and makes it current.
	Save(ctx context.Context, model *models.Model, version string) (*models.ModelInfo, error)

	// SaveNext computes the next version and saves under it while holding the writer lock.
	SaveNext(ctx context.Context, model *models.Model) (*models.ModelInfo, error)

	// CurrentModelInfo returns the current version's metadata or ErrNoModel.
	CurrentModelInfo(ctx context.Context) (*models.ModelInfo, error)

	// Load reads a saved model or returns ErrModelNotFound.
	Load(ctx context.Context, version string) (*models.Model, error)

	// Registry returns a copy of the registry.
	Registry(ctx context.Context) (*models.Registry, error)

	// Prune removes all but the newest keep versions. The current version is never removed.
	Prune(ctx context.Context, keep int) (int, error)

	// Close releases backend resources.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	Path    string
}

// Open creates the store described by cfg.
func Open(cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Path, logger)
	case BackendBadger:
		return NewBadgerStore(BadgerConfig{Path: cfg.Path}, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// highestVersion returns the largest version known to reg, counting both the
// current pointer and every entry.
func highestVersion(reg *models.Registry) (float64, error) {
	highest, err := models.ParseVersion(reg.CurrentVersion)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRegistryCorrupt, err)
	}
	for v := range reg.Models {
		n, err := models.ParseVersion(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrRegistryCorrupt, err)
		}
		highest = math.Max(highest, n)
	}
	return highest, nil
}

// nextVersion derives the next label from reg without reusing any label.
func nextVersion(reg *models.Registry) (string, error) {
	highest, err := highestVersion(reg)
	if err != nil {
		return "", err
	}
	return models.FormatVersion(int(math.Floor(highest)) + 1), nil
}

// checkNewVersion rejects labels that are malformed or not canonical "N.0",
// already used, or not above every registered version.
func checkNewVersion(reg *models.Registry, version string) error {
	v, err := models.ParseVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVersionConflict, err)
	}
	if v > math.MaxInt32 || version != models.FormatVersion(int(v)) {
		return fmt.Errorf("%w: version %s is not of the form N.0", ErrVersionConflict, version)
	}
	if _, exists := reg.Models[version]; exists {
		return fmt.Errorf("%w: version %s already saved", ErrVersionConflict, version)
	}
	highest, err := highestVersion(reg)
	if err != nil {
		return err
	}
	if v <= highest {
		return fmt.Errorf("%w: version %s does not advance %s", ErrVersionConflict, version, models.FormatVersion(int(highest)))
	}
	return nil
}

// currentInfo returns the registry entry of the current version.
func currentInfo(reg *models.Registry) (*models.ModelInfo, error) {
	if !reg.HasModel() {
		return nil, ErrNoModel
	}
	info := reg.Models[reg.CurrentVersion]
	return &info, nil
}

// pruneCandidates returns the versions to delete so that only the newest keep
// versions (plus the current one) remain.
func pruneCandidates(reg *models.Registry, keep int) []string {
	if keep < 1 {
		keep = 1
	}
	// Newest first.
	versions := reg.Versions()
	reverse(versions)

	var out []string
	for i, v := range versions {
		if i < keep || v == reg.CurrentVersion {
			continue
		}
		out = append(out, v)
	}
	return out
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func checkModel(model *models.Model) error {
	if model == nil {
		return errors.New("nil model")
	}
	return nil
}
