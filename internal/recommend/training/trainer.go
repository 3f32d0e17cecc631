// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/metrics"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/recommend/eclat"
	"github.com/tomtom215/setlist/internal/recommend/storage"
)

var (
	// ErrTrainingInProgress is returned when a run is already active.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrNoDatasetSource is returned when neither the request nor the
	// configuration names a dataset.
	ErrNoDatasetSource = errors.New("no dataset source configured")
)

// MaxItemsetSizeLimit is the largest max_itemset_size a run may request.
const MaxItemsetSizeLimit = 10

// Pipeline stage names used in logs and metrics.
const (
	StageFetch = "fetch"
	StageBuild = "build"
	StageMine  = "mine"
	StageRules = "rules"
	StageSave  = "save"
	StagePrune = "prune"
)

// DatasetFetcher loads a dataset from a source. *dataset.Fetcher satisfies it.
type DatasetFetcher interface {
	Fetch(ctx context.Context, source string) (*dataset.Dataset, error)
}

// Listener is notified after a model is saved. Errors are logged; the saved
// model stays current.
type Listener func(ctx context.Context, info models.ModelInfo) error

// Config holds the defaults a run falls back to.
type Config struct {
	MinSupport     float64
	MinConfidence  float64
	MaxItemsetSize int
	Workers        int

	DatasetURL     string
	DatasetName    string
	DatasetVersion string

	// KeepVersions prunes older versions after a save when > 0.
	KeepVersions int
}

// Request describes one training run. Zero values fall back to Config.
type Request struct {
	DatasetURL     string
	DatasetName    string
	DatasetVersion string

	// Dataset skips fetching when set.
	Dataset *dataset.Dataset

	MinSupport     float64
	MaxItemsetSize int

	// MinConfidence overrides the configured threshold when set. An
	// explicit 0 keeps every rule.
	MinConfidence *float64
}

// Result describes a saved model.
type Result struct {
	Info     models.ModelInfo
	Stats    models.DatasetStats
	Params   models.MiningParams
	Dataset  models.DatasetInfo
	Duration time.Duration
}

// Trainer runs the fetch, build, mine, rules, save pipeline. One run at a
// time; concurrent calls fail fast with ErrTrainingInProgress.
type Trainer struct {
	cfg     Config
	store   storage.Store
	fetcher DatasetFetcher
	logger  zerolog.Logger

	mu sync.Mutex

	listenerMu sync.RWMutex
	listeners  []Listener
}

// NewTrainer creates a Trainer. fetcher may be nil when every request
// carries its own Dataset.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainer(cfg Config, store storage.Store, fetcher DatasetFetcher, logger zerolog.Logger) (*Trainer, error) {
	if store == nil {
		return nil, errors.New("training: store is required")
	}
	return &Trainer{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		logger:  logger.With().Str("component", "trainer").Logger(),
	}, nil
}

// AddListener registers l to run after every successful save.
func (t *Trainer) AddListener(l Listener) {
	t.listenerMu.Lock()
	defer t.listenerMu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Train runs the pipeline. Any stage error aborts the run before saving.
func (t *Trainer) Train(ctx context.Context, req Request) (res *Result, err error) {
	if !t.mu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer t.mu.Unlock()

	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	logger := t.logger.With().Str("correlation_id", logging.CorrelationIDFromContext(ctx)).Logger()

	start := time.Now()
	defer func() {
		if err != nil {
			metrics.RecordTrainingRun("failure", 0, 0, 0)
			logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Training failed")
		}
	}()

	params, err := t.resolveParams(req)
	if err != nil {
		return nil, err
	}

	var ds *dataset.Dataset
	err = t.stage(logger, StageFetch, func() error {
		ds, err = t.loadDataset(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("dataset", ds.Name).
		Str("dataset_version", ds.Version).
		Int("rows", ds.Stats.TotalRows).
		Int("playlists", ds.Stats.TotalPlaylists).
		Int("unique_items", ds.Stats.UniqueItems).
		Float64("min_support", params.MinSupport).
		Float64("min_confidence", params.MinConfidence).
		Int("max_itemset_size", params.MaxItemsetSize).
		Msg("Training started")

	var db *eclat.VerticalDB
	err = t.stage(logger, StageBuild, func() error {
		db, err = eclat.BuildVerticalDB(ds.Playlists)
		return err
	})
	if err != nil {
		return nil, err
	}

	var itemsets []models.Itemset
	err = t.stage(logger, StageMine, func() error {
		miner, err := eclat.NewMiner(eclat.MinerConfig{
			MinSupport:     params.MinSupport,
			MaxItemsetSize: params.MaxItemsetSize,
			Workers:        t.cfg.Workers,
		})
		if err != nil {
			return err
		}
		itemsets, err = miner.Mine(db)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rules []models.Rule
	err = t.stage(logger, StageRules, func() error {
		rules, err = eclat.GenerateRules(itemsets, db.Transactions, params.MinConfidence)
		return err
	})
	if err != nil {
		return nil, err
	}

	model := models.NewModel(itemsets, rules, db.Transactions, params, ds.Info())

	var info *models.ModelInfo
	err = t.stage(logger, StageSave, func() error {
		info, err = t.store.SaveNext(ctx, model)
		return err
	})
	if err != nil {
		return nil, err
	}

	if t.cfg.KeepVersions > 0 {
		// Pruning failures leave extra versions behind but do not fail the run.
		_ = t.stage(logger, StagePrune, func() error { //nolint:errcheck // logged by stage
			_, err := t.store.Prune(ctx, t.cfg.KeepVersions)
			return err
		})
	}

	res = &Result{
		Info:     *info,
		Stats:    ds.Stats,
		Params:   params,
		Dataset:  ds.Info(),
		Duration: time.Since(start),
	}
	metrics.RecordTrainingRun("success", db.Transactions, len(itemsets), len(rules))
	logger.Info().
		Str("version", info.Version).
		Int("itemsets", len(itemsets)).
		Int("rules", len(rules)).
		Dur("duration", res.Duration).
		Msg("Training completed")

	t.notify(ctx, logger, *info)
	return res, nil
}

func (t *Trainer) stage(logger zerolog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordTrainingStage(name, d)
	if err != nil {
		logger.Warn().Err(err).Str("stage", name).Dur("duration", d).Msg("Training stage failed")
		return fmt.Errorf("%s: %w", name, err)
	}
	logger.Debug().Str("stage", name).Dur("duration", d).Msg("Training stage completed")
	return nil
}

func (t *Trainer) loadDataset(ctx context.Context, req Request) (*dataset.Dataset, error) {
	name := firstNonEmpty(req.DatasetName, t.cfg.DatasetName, "unknown")
	version := firstNonEmpty(req.DatasetVersion, t.cfg.DatasetVersion, "unknown")

	if req.Dataset != nil {
		ds := *req.Dataset
		ds.Name = firstNonEmpty(ds.Name, name)
		ds.Version = firstNonEmpty(ds.Version, version)
		return &ds, nil
	}

	source := firstNonEmpty(req.DatasetURL, t.cfg.DatasetURL)
	if source == "" {
		return nil, ErrNoDatasetSource
	}
	if t.fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher for %s", ErrNoDatasetSource, source)
	}

	ds, err := t.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	ds.Name = name
	ds.Version = version
	return ds, nil
}

// resolveParams applies config defaults and validates the result.
func (t *Trainer) resolveParams(req Request) (models.MiningParams, error) {
	p := models.MiningParams{
		MinSupport:     req.MinSupport,
		MinConfidence:  t.cfg.MinConfidence,
		MaxItemsetSize: req.MaxItemsetSize,
	}
	if p.MinSupport == 0 {
		p.MinSupport = t.cfg.MinSupport
	}
	if req.MinConfidence != nil {
		p.MinConfidence = *req.MinConfidence
	}
	if p.MaxItemsetSize == 0 {
		p.MaxItemsetSize = t.cfg.MaxItemsetSize
	}
	if p.MaxItemsetSize == 0 {
		p.MaxItemsetSize = eclat.DefaultMaxItemsetSize
	}

	switch {
	case !inUnitInterval(p.MinSupport):
		return p, fmt.Errorf("%w: min_support %v must be in (0, 1]", eclat.ErrInvalidParameter, p.MinSupport)
	case math.IsNaN(p.MinConfidence) || p.MinConfidence < 0 || p.MinConfidence > 1:
		return p, fmt.Errorf("%w: min_confidence %v must be in [0, 1]", eclat.ErrInvalidParameter, p.MinConfidence)
	case p.MaxItemsetSize < 1 || p.MaxItemsetSize > MaxItemsetSizeLimit:
		return p, fmt.Errorf("%w: max_itemset_size %d must be between 1 and %d", eclat.ErrInvalidParameter, p.MaxItemsetSize, MaxItemsetSizeLimit)
	}
	return p, nil
}

func (t *Trainer) notify(ctx context.Context, logger zerolog.Logger, info models.ModelInfo) {
	t.listenerMu.RLock()
	listeners := append([]Listener(nil), t.listeners...)
	t.listenerMu.RUnlock()

	for _, l := range listeners {
		if err := l(ctx, info); err != nil {
			logger.Warn().Err(err).Str("version", info.Version).Msg("Model listener failed")
		}
	}
}

func inUnitInterval(v float64) bool {
	return !math.IsNaN(v) && v > 0 && v <= 1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
