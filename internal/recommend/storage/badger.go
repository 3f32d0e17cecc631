// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/metrics"
	"github.com/tomtom215/setlist/internal/models"
)

var registryKey = []byte("registry")

const modelKeyPrefix = "model/"

// BadgerConfig configures a BadgerStore.
type BadgerConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory. Intended for tests.
	InMemory bool
}

// BadgerStore keeps payloads and the registry in BadgerDB. Save commits the
// payload and the registry update in one transaction.
type BadgerStore struct {
	db     *badger.DB
	path   string
	logger zerolog.Logger

	mu sync.Mutex

	now func() time.Time
}

// NewBadgerStore opens (or creates) a BadgerDB-backed store.
func NewBadgerStore(cfg BadgerConfig, logger zerolog.Logger) (*BadgerStore, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, errors.New("badger store path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = true

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		path:   cfg.Path,
		logger: logger.With().Str("component", "model_store").Str("backend", BackendBadger).Logger(),
		now:    time.Now,
	}

	s.logger.Info().Str("path", cfg.Path).Bool("in_memory", cfg.InMemory).Msg("Model store opened")
	return s, nil
}

// NextVersion implements Store.
func (s *BadgerStore) NextVersion(ctx context.Context) (string, error) {
	var version string
	err := s.db.View(func(txn *badger.Txn) error {
		reg, err := readBadgerRegistry(txn)
		if err != nil {
			return err
		}
		version, err = nextVersion(reg)
		return err
	})
	return version, err
}

// Save implements Store.
func (s *BadgerStore) Save(ctx context.Context, model *models.Model, version string) (*models.ModelInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, model, func(*models.Registry) (string, error) { return version, nil })
}

// SaveNext implements Store.
func (s *BadgerStore) SaveNext(ctx context.Context, model *models.Model) (*models.ModelInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, model, nextVersion)
}

func (s *BadgerStore) save(ctx context.Context, model *models.Model, pick func(*models.Registry) (string, error)) (info *models.ModelInfo, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(BackendBadger, "save", err, time.Since(start)) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkModel(model); err != nil {
		return nil, err
	}

	payload, checksum, err := encodePayload(model)
	if err != nil {
		return nil, err
	}

	var entry models.ModelInfo
	err = s.db.Update(func(txn *badger.Txn) error {
		reg, err := readBadgerRegistry(txn)
		if err != nil {
			return err
		}
		version, err := pick(reg)
		if err != nil {
			return err
		}
		if err := checkNewVersion(reg, version); err != nil {
			return err
		}

		entry = models.ModelInfo{
			Version:     version,
			Path:        s.location(version),
			Timestamp:   s.now().UTC(),
			NumRules:    model.NumRules,
			NumItemsets: model.NumItemsets,
			Checksum:    checksum,
			SizeBytes:   int64(len(payload)),
		}

		if err := txn.Set(modelKey(version), payload); err != nil {
			return fmt.Errorf("write model payload: %w", err)
		}

		next := reg.Clone()
		next.Models[version] = entry
		next.CurrentVersion = version
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode registry: %w", err)
		}
		return txn.Set(registryKey, data)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("version", entry.Version).
		Int("rules", entry.NumRules).
		Int("itemsets", entry.NumItemsets).
		Int64("size_bytes", entry.SizeBytes).
		Msg("Saved model")

	return &entry, nil
}

// CurrentModelInfo implements Store.
func (s *BadgerStore) CurrentModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	reg, err := s.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return currentInfo(reg)
}

// Load implements Store.
func (s *BadgerStore) Load(ctx context.Context, version string) (model *models.Model, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(BackendBadger, "load", err, time.Since(start)) }()

	var (
		payload []byte
		entry   models.ModelInfo
	)
	err = s.db.View(func(txn *badger.Txn) error {
		reg, err := readBadgerRegistry(txn)
		if err != nil {
			return err
		}
		var ok bool
		entry, ok = reg.Models[version]
		if !ok {
			return fmt.Errorf("%w: version %s", ErrModelNotFound, version)
		}

		item, err := txn.Get(modelKey(version))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: version %s: payload missing", ErrModelNotFound, version)
		}
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	model, err = decodePayload(payload, entry.Checksum)
	if err != nil {
		return nil, fmt.Errorf("%w: version %s: %w", ErrModelNotFound, version, err)
	}
	return model, nil
}

// Registry implements Store.
func (s *BadgerStore) Registry(ctx context.Context) (*models.Registry, error) {
	var reg *models.Registry
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		reg, err = readBadgerRegistry(txn)
		return err
	})
	return reg, err
}

// Prune implements Store.
func (s *BadgerStore) Prune(ctx context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		reg, err := readBadgerRegistry(txn)
		if err != nil {
			return err
		}
		victims := pruneCandidates(reg, keep)
		if len(victims) == 0 {
			return nil
		}

		next := reg.Clone()
		for _, v := range victims {
			delete(next.Models, v)
			if err := txn.Delete(modelKey(v)); err != nil {
				return err
			}
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode registry: %w", err)
		}
		removed = len(victims)
		return txn.Set(registryKey, data)
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Pruned model versions")
	}
	return removed, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) location(version string) string {
	return "badger://" + s.path + "/" + modelKeyPrefix + version
}

func modelKey(version string) []byte {
	return []byte(modelKeyPrefix + version)
}

func readBadgerRegistry(txn *badger.Txn) (*models.Registry, error) {
	item, err := txn.Get(registryKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var reg models.Registry
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &reg)
	})
	if err != nil {
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
