// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/recommend/storage"
)

const defaultWatchDebounce = 500 * time.Millisecond

// ReloadFunc loads the store's current model into the engine.
type ReloadFunc func(ctx context.Context) error

// RegistryWatcherService reloads the model when the registry file changes,
// so a separate trainer process can publish versions through the shared
// models directory.
//
// The directory is watched rather than the file because the registry is
// replaced by rename on every write.
type RegistryWatcherService struct {
	path     string
	reload   ReloadFunc
	debounce time.Duration
	logger   zerolog.Logger
	name     string
}

// NewRegistryWatcherService watches registryPath. Bursts of events within
// debounce trigger one reload.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRegistryWatcherService(registryPath string, reload ReloadFunc, debounce time.Duration, logger zerolog.Logger) *RegistryWatcherService {
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}
	return &RegistryWatcherService{
		path:     filepath.Clean(registryPath),
		reload:   reload,
		debounce: debounce,
		logger:   logger.With().Str("service", "registry-watcher").Str("path", registryPath).Logger(),
		name:     "registry-watcher",
	}
}

// Serve implements suture.Service. Watcher setup errors are returned so the
// supervisor retries with backoff.
func (s *RegistryWatcherService) Serve(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }() //nolint:errcheck // closing on shutdown

	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}
	s.logger.Info().Dur("debounce", s.debounce).Msg("Watching model registry")

	// Pick up anything written while the watcher was down.
	s.doReload(ctx)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("watcher event channel closed")
			}
			if filepath.Clean(ev.Name) != s.path || !ev.Has(fsnotify.Create|fsnotify.Write|fsnotify.Rename) {
				continue
			}
			s.logger.Debug().Str("op", ev.Op.String()).Msg("Registry changed")
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			s.logger.Warn().Err(err).Msg("Registry watcher error")

		case <-fire:
			fire = nil
			s.doReload(ctx)
		}
	}
}

func (s *RegistryWatcherService) doReload(ctx context.Context) {
	err := s.reload(ctx)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNoModel):
		s.logger.Debug().Msg("Registry has no model yet")
	default:
		s.logger.Warn().Err(err).Msg("Model reload after registry change failed")
	}
}

// String identifies the service in supervisor logs.
func (s *RegistryWatcherService) String() string {
	return s.name
}
