// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/cache"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/metrics"
	"github.com/tomtom215/setlist/internal/models"
)

var (
	// ErrInvalidInput is returned for an empty song list or a blank entry.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable is returned when no model has been loaded.
	ErrModelUnavailable = errors.New("no model loaded")
)

// ModelSource provides the current model. storage.Store satisfies it.
type ModelSource interface {
	CurrentModelInfo(ctx context.Context) (*models.ModelInfo, error)
	Load(ctx context.Context, version string) (*models.Model, error)
}

// Result is a recommendation response.
type Result struct {
	Songs     []string  `json:"songs"`
	Version   string    `json:"version"`
	ModelDate time.Time `json:"model_date"`

	// Cached reports whether the songs came from the response cache.
	Cached bool `json:"-"`
}

// Status describes the loaded model.
type Status struct {
	Loaded      bool      `json:"loaded"`
	Version     string    `json:"version,omitempty"`
	ModelDate   time.Time `json:"model_date,omitempty"`
	NumRules    int       `json:"num_rules"`
	NumItemsets int       `json:"num_itemsets"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`

	// Cache is nil when the response cache is disabled.
	Cache *CacheStats `json:"cache,omitempty"`
}

// CacheStats describes the response cache.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Engine answers recommendation requests from the currently loaded model.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	current atomic.Pointer[snapshot]

	// reloadMu serializes Reload so two reloads cannot interleave load and swap.
	reloadMu sync.Mutex

	cache *cache.LRU[string, []string]
}

// NewEngine creates a recommendation engine with no model loaded.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config: cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
	}
	if cfg.Cache.Enabled {
		e.cache = cache.NewLRU[string, []string](cfg.Cache.Size, cfg.Cache.TTL)
	}
	return e, nil
}

// Swap replaces the loaded model. In-flight requests finish against the
// model they started with.
func (e *Engine) Swap(model *models.Model, info models.ModelInfo) error {
	if model == nil {
		return errors.New("swap: nil model")
	}

	snap := compile(model, info)
	prev := e.current.Swap(snap)
	if e.cache != nil {
		e.cache.Purge()
	}
	metrics.RecordModelSwap(info.Version, len(snap.rules))

	event := e.logger.Info().
		Str("version", info.Version).
		Int("rules", model.NumRules).
		Int("indexed_rules", len(snap.rules)).
		Int("itemsets", model.NumItemsets)
	if prev != nil {
		event = event.Str("previous_version", prev.info.Version)
	}
	event.Msg("Model loaded")
	return nil
}

// Reload loads the source's current version and swaps it in. Reloading the
// version that is already loaded is a no-op.
func (e *Engine) Reload(ctx context.Context, src ModelSource) (*models.ModelInfo, error) {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	info, err := src.CurrentModelInfo(ctx)
	if err != nil {
		return nil, err
	}

	if cur := e.current.Load(); cur != nil && cur.info.Version == info.Version && cur.info.Checksum == info.Checksum {
		e.logger.Debug().Str("version", info.Version).Msg("Model already loaded")
		return info, nil
	}

	model, err := src.Load(ctx, info.Version)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", info.Version, err)
	}
	if err := e.Swap(model, *info); err != nil {
		return nil, err
	}
	return info, nil
}

// Status reports the loaded model and the response cache. Expired cache
// entries are dropped first, so health probes keep the cache trimmed.
func (e *Engine) Status() Status {
	var st Status
	if snap := e.current.Load(); snap != nil {
		st = Status{
			Loaded:      true,
			Version:     snap.info.Version,
			ModelDate:   snap.info.Timestamp,
			NumRules:    snap.model.NumRules,
			NumItemsets: snap.model.NumItemsets,
			LoadedAt:    snap.loadedAt,
		}
	}
	if e.cache != nil {
		if n := e.cache.CleanupExpired(); n > 0 {
			e.logger.Debug().Int("expired", n).Msg("Dropped expired cache entries")
		}
		hits, misses, entries := e.cache.Stats()
		metrics.SetRecommendCacheEntries(entries)
		st.Cache = &CacheStats{Hits: hits, Misses: misses, Entries: entries}
	}
	return st
}

// Recommend returns up to topN songs for the given input songs. topN <= 0
// selects the configured default; larger values are clamped.
func (e *Engine) Recommend(ctx context.Context, songs []string, topN int) (res *Result, err error) {
	start := time.Now()
	defer func() { metrics.RecordRecommendation(resultLabel(res, err), time.Since(start)) }()

	inputs, err := normalizeInputs(songs)
	if err != nil {
		return nil, err
	}

	snap := e.current.Load()
	if snap == nil {
		return nil, ErrModelUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := e.config.resolveTopN(topN)
	key := cacheKey(snap.info.Version, n, inputs.sorted)

	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			metrics.RecordRecommendCache(true)
			return snap.result(cloneStrings(cached), true), nil
		}
		metrics.RecordRecommendCache(false)
	}

	out := snap.recommend(inputs, n)
	if e.cache != nil {
		e.cache.Add(key, cloneStrings(out))
	}

	e.logger.Debug().
		Str("request_id", logging.RequestIDFromContext(ctx)).
		Str("version", snap.info.Version).
		Int("inputs", len(inputs.sorted)).
		Int("top_n", n).
		Int("returned", len(out)).
		Dur("latency", time.Since(start)).
		Msg("recommendation complete")

	return snap.result(out, false), nil
}

// inputSet is the normalized, deduplicated request.
type inputSet struct {
	names  map[string]struct{}
	sorted []string
}

func normalizeInputs(songs []string) (inputSet, error) {
	if len(songs) == 0 {
		return inputSet{}, fmt.Errorf("%w: songs must not be empty", ErrInvalidInput)
	}
	set := inputSet{names: make(map[string]struct{}, len(songs))}
	for i, s := range songs {
		norm := NormalizeSongName(s)
		if norm == "" {
			return inputSet{}, fmt.Errorf("%w: song %d is blank", ErrInvalidInput, i)
		}
		if _, dup := set.names[norm]; dup {
			continue
		}
		set.names[norm] = struct{}{}
		set.sorted = append(set.sorted, norm)
	}
	sort.Strings(set.sorted)
	return set, nil
}

func cacheKey(version string, topN int, inputs []string) string {
	var b strings.Builder
	b.WriteString(version)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(topN))
	for _, in := range inputs {
		b.WriteByte('\x1f')
		b.WriteString(in)
	}
	return b.String()
}

func resultLabel(res *Result, err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrModelUnavailable):
		return "unavailable"
	case err != nil:
		return "error"
	case len(res.Songs) == 0:
		return "empty"
	default:
		return "ok"
	}
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
