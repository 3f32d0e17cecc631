// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/metrics"
	"github.com/tomtom215/setlist/internal/models"
)

const (
	// RegistryFile is the registry document inside a FileStore directory.
	RegistryFile = "metadata.json"

	payloadPrefix = "association_rules_v"
	payloadSuffix = ".json.gz"
	tempMarker    = ".tmp-"
	lockFile      = ".lock"

	lockRetryDelay = 20 * time.Millisecond
)

// errDirSync marks a write whose rename already took effect but whose
// directory fsync failed. The new file is visible; only its durability
// across a crash is in doubt.
var errDirSync = errors.New("directory sync failed")

// FileStore keeps models as files in a single directory. Several processes
// may share the directory: writers hold an flock on <dir>/.lock from the
// registry read to the registry rename. Readers go straight to disk.
type FileStore struct {
	baseDir string
	logger  zerolog.Logger

	// mu serializes writers in this process; flock only excludes other
	// file descriptions.
	mu   sync.Mutex
	lock *flock.Flock

	now      func() time.Time
	fsyncDir func(dir string) error
}

// NewFileStore creates a store rooted at baseDir, creating the directory and an
// empty registry on first use.
func NewFileStore(baseDir string, logger zerolog.Logger) (*FileStore, error) {
	if baseDir == "" {
		return nil, errors.New("file store path is required")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for model storage
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &FileStore{
		baseDir:  baseDir,
		logger:   logger.With().Str("component", "model_store").Str("backend", BackendFile).Logger(),
		lock:     flock.New(filepath.Join(baseDir, lockFile)),
		now:      time.Now,
		fsyncDir: syncDirectory,
	}

	err := s.withWriteLock(context.Background(), func() error {
		// Under the lock no other writer has a temp file in flight.
		s.removeStaleTemps()

		_, err := os.Stat(s.RegistryPath())
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("stat registry: %w", err)
		}
		if err := s.writeRegistry(models.NewRegistry()); err != nil && !errors.Is(err, errDirSync) {
			return fmt.Errorf("initialize registry: %w", err)
		}
		s.logger.Info().Str("path", s.RegistryPath()).Msg("Initialized empty model registry")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// withWriteLock runs fn holding both the in-process mutex and the directory
// flock.
func (s *FileStore) withWriteLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock model store: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock model store: %w", ctx.Err())
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to release model store lock")
		}
	}()
	return fn()
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.baseDir
}

// RegistryPath returns the path of the registry document.
func (s *FileStore) RegistryPath() string {
	return filepath.Join(s.baseDir, RegistryFile)
}

// NextVersion implements Store.
func (s *FileStore) NextVersion(ctx context.Context) (string, error) {
	reg, err := s.readRegistry()
	if err != nil {
		return "", err
	}
	return nextVersion(reg)
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, model *models.Model, version string) (info *models.ModelInfo, err error) {
	err = s.withWriteLock(ctx, func() error {
		info, err = s.saveLocked(ctx, model, version)
		return err
	})
	return info, err
}

// SaveNext implements Store.
func (s *FileStore) SaveNext(ctx context.Context, model *models.Model) (info *models.ModelInfo, err error) {
	err = s.withWriteLock(ctx, func() error {
		reg, err := s.readRegistry()
		if err != nil {
			return err
		}
		version, err := nextVersion(reg)
		if err != nil {
			return err
		}
		info, err = s.saveLocked(ctx, model, version)
		return err
	})
	return info, err
}

func (s *FileStore) saveLocked(ctx context.Context, model *models.Model, version string) (info *models.ModelInfo, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(BackendFile, "save", err, time.Since(start)) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkModel(model); err != nil {
		return nil, err
	}

	reg, err := s.readRegistry()
	if err != nil {
		return nil, err
	}
	if err := checkNewVersion(reg, version); err != nil {
		return nil, err
	}

	payload, checksum, err := encodePayload(model)
	if err != nil {
		return nil, err
	}

	// Payload first: until the registry rename below, readers still see the
	// previous version as current. The registry does not name this version,
	// so a file already at path is an orphan of an interrupted save.
	path := s.payloadPath(version)
	if err := os.Remove(path); err == nil {
		s.logger.Warn().Str("version", version).Msg("Removed orphaned model payload")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove orphaned payload: %w", err)
	}
	if err := s.writeFileExclusive(path, payload); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: payload for version %s appeared concurrently", ErrVersionConflict, version)
		}
		if errors.Is(err, errDirSync) {
			_ = os.Remove(path) //nolint:errcheck // best-effort cleanup
		}
		return nil, fmt.Errorf("write model payload: %w", err)
	}

	entry := models.ModelInfo{
		Version:     version,
		Path:        path,
		Timestamp:   s.now().UTC(),
		NumRules:    model.NumRules,
		NumItemsets: model.NumItemsets,
		Checksum:    checksum,
		SizeBytes:   int64(len(payload)),
	}

	next := reg.Clone()
	next.Models[version] = entry
	next.CurrentVersion = version
	if err := s.writeRegistry(next); err != nil {
		if !errors.Is(err, errDirSync) {
			// The registry never named the payload.
			_ = os.Remove(path) //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("write registry: %w", err)
		}
		// The new registry is live and names the payload, so it stays.
		s.logger.Warn().Err(err).Str("version", version).Msg("Registry updated but directory sync failed")
	}

	s.logger.Info().
		Str("version", version).
		Int("rules", entry.NumRules).
		Int("itemsets", entry.NumItemsets).
		Int64("size_bytes", entry.SizeBytes).
		Msg("Saved model")

	return &entry, nil
}

// CurrentModelInfo implements Store.
func (s *FileStore) CurrentModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	reg, err := s.readRegistry()
	if err != nil {
		return nil, err
	}
	return currentInfo(reg)
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, version string) (model *models.Model, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(BackendFile, "load", err, time.Since(start)) }()

	reg, err := s.readRegistry()
	if err != nil {
		return nil, err
	}
	entry, ok := reg.Models[version]
	if !ok {
		return nil, fmt.Errorf("%w: version %s", ErrModelNotFound, version)
	}

	// Resolve relative to the store so a moved directory keeps working.
	data, err := os.ReadFile(filepath.Join(s.baseDir, filepath.Base(entry.Path))) //nolint:gosec // path derived from registry inside baseDir
	if err != nil {
		return nil, fmt.Errorf("%w: version %s: %w", ErrModelNotFound, version, err)
	}

	model, err = decodePayload(data, entry.Checksum)
	if err != nil {
		return nil, fmt.Errorf("%w: version %s: %w", ErrModelNotFound, version, err)
	}
	return model, nil
}

// Registry implements Store.
func (s *FileStore) Registry(ctx context.Context) (*models.Registry, error) {
	return s.readRegistry()
}

// Prune implements Store.
func (s *FileStore) Prune(ctx context.Context, keep int) (removed int, err error) {
	err = s.withWriteLock(ctx, func() error {
		removed, err = s.pruneLocked(keep)
		return err
	})
	return removed, err
}

func (s *FileStore) pruneLocked(keep int) (int, error) {
	reg, err := s.readRegistry()
	if err != nil {
		return 0, err
	}

	victims := pruneCandidates(reg, keep)
	if len(victims) == 0 {
		return 0, nil
	}

	next := reg.Clone()
	for _, v := range victims {
		delete(next.Models, v)
	}
	// Drop the entries before the files so the registry never names a missing payload.
	if err := s.writeRegistry(next); err != nil {
		if !errors.Is(err, errDirSync) {
			return 0, fmt.Errorf("write registry: %w", err)
		}
		// A crash could bring back the old registry, which still names the
		// victims. Their payloads stay until a later prune.
		s.logger.Warn().Err(err).Int("dropped", len(victims)).Msg("Registry updated but directory sync failed; keeping pruned payloads")
		return len(victims), nil
	}

	for _, v := range victims {
		if err := os.Remove(s.payloadPath(v)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("version", v).Msg("Failed to remove pruned model payload")
		}
	}

	s.logger.Info().Int("removed", len(victims)).Int("kept", len(next.Models)).Msg("Pruned model versions")
	return len(victims), nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) payloadPath(version string) string {
	return filepath.Join(s.baseDir, payloadPrefix+version+payloadSuffix)
}

func (s *FileStore) readRegistry() (*models.Registry, error) {
	data, err := os.ReadFile(s.RegistryPath())
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var reg models.Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistryCorrupt, err)
	}
	if reg.CurrentVersion == "" {
		reg.CurrentVersion = models.InitialVersion
	}
	if reg.Models == nil {
		reg.Models = make(map[string]models.ModelInfo)
	}
	return &reg, nil
}

func (s *FileStore) writeRegistry(reg *models.Registry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	return s.writeFileAtomic(s.RegistryPath(), data)
}

// removeStaleTemps deletes temporary files left by an interrupted write.
func (s *FileStore) removeStaleTemps() {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.Contains(e.Name(), tempMarker) {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, e.Name())); err == nil {
			s.logger.Debug().Str("file", e.Name()).Msg("Removed stale temporary file")
		}
	}
}

// writeTemp writes data to a synced temporary file next to path and returns
// its name.
func writeTemp(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+tempMarker+"*")
	if err != nil {
		return "", err
	}
	name := tmp.Name()
	fail := func(err error) (string, error) {
		_ = tmp.Close()     //nolint:errcheck // already failing
		_ = os.Remove(name) //nolint:errcheck // best-effort cleanup
		return "", err
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(name, 0o640); err != nil { //nolint:gosec // models are not secrets
		_ = os.Remove(name) //nolint:errcheck // best-effort cleanup
		return "", err
	}
	return name, nil
}

// writeFileAtomic replaces path with data through a rename. An error
// wrapping errDirSync means the rename happened.
func (s *FileStore) writeFileAtomic(path string, data []byte) error {
	tmp, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return err
	}
	return s.syncDir(filepath.Dir(path))
}

// writeFileExclusive creates path with data, failing with fs.ErrExist
// instead of replacing an existing file. An error wrapping errDirSync means
// the file was created.
func (s *FileStore) writeFileExclusive(path string, data []byte) error {
	tmp, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	err = os.Link(tmp, path)
	_ = os.Remove(tmp) //nolint:errcheck // the link, if any, keeps the data
	if err != nil {
		return err
	}
	return s.syncDir(filepath.Dir(path))
}

func (s *FileStore) syncDir(dir string) error {
	if err := s.fsyncDir(dir); err != nil {
		return fmt.Errorf("%w: %w", errDirSync, err)
	}
	return nil
}

func syncDirectory(dir string) error {
	d, err := os.Open(dir) //nolint:gosec // store directory
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }() //nolint:errcheck // read-only handle
	return d.Sync()
}
