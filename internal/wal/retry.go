// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package wal

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/metrics"
)

const publishTimeout = 10 * time.Second

// PublishFunc delivers one payload.
type PublishFunc func(ctx context.Context, payload []byte) error

// RetryStats summarizes one replay pass.
type RetryStats struct {
	Published int
	Failed    int
	Discarded int
	Waiting   int
}

// RetryLoop replays pending entries. It implements suture.Service.
type RetryLoop struct {
	wal     *WAL
	publish PublishFunc
	logger  zerolog.Logger

	// now is replaced in tests.
	now func() time.Time

	mu sync.Mutex
}

// NewRetryLoop creates a RetryLoop delivering entries through publish.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetryLoop(w *WAL, publish PublishFunc, logger zerolog.Logger) *RetryLoop {
	return &RetryLoop{
		wal:     w,
		publish: publish,
		logger:  logger.With().Str("component", "wal-retry").Logger(),
		now:     time.Now,
	}
}

// Serve replays once at startup, then every RetryInterval until ctx is done.
func (r *RetryLoop) Serve(ctx context.Context) error {
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.wal.Config().RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// String returns the service name for supervisor logging.
func (r *RetryLoop) String() string {
	return "wal-retry-loop"
}

// RunOnce makes one pass over the pending entries. Passes never overlap.
func (r *RetryLoop) RunOnce(ctx context.Context) RetryStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats RetryStats
	entries, err := r.wal.Pending(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error().Err(err).Msg("WAL retry: failed to list pending entries")
		}
		return stats
	}

	cfg := r.wal.Config()
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		switch {
		case r.now().Sub(entry.CreatedAt) > cfg.EntryTTL:
			r.discard(ctx, entry, "expired", &stats)
		case entry.Attempts >= cfg.MaxRetries:
			r.discard(ctx, entry, "max retries exceeded", &stats)
		case !entry.LastAttemptAt.IsZero() && r.now().Sub(entry.LastAttemptAt) < backoff(cfg.RetryBackoff, entry.Attempts-1):
			stats.Waiting++
		default:
			r.attempt(ctx, entry, &stats)
		}
	}

	if stats.Published+stats.Failed+stats.Discarded > 0 {
		r.logger.Info().
			Int("published", stats.Published).
			Int("failed", stats.Failed).
			Int("discarded", stats.Discarded).
			Int("waiting", stats.Waiting).
			Msg("WAL retry pass completed")
	}
	return stats
}

func (r *RetryLoop) attempt(ctx context.Context, entry *Entry, stats *RetryStats) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	err := r.publish(pubCtx, entry.Payload)
	cancel()

	if err != nil {
		stats.Failed++
		r.logger.Warn().Err(err).Str("entry_id", entry.ID).Int("attempt", entry.Attempts+1).Msg("WAL retry: publish failed")
		if err := r.wal.UpdateAttempt(ctx, entry.ID, err.Error()); err != nil {
			r.logger.Error().Err(err).Str("entry_id", entry.ID).Msg("WAL retry: failed to record attempt")
		}
		return
	}

	if err := r.wal.Confirm(ctx, entry.ID); err != nil {
		r.logger.Error().Err(err).Str("entry_id", entry.ID).Msg("WAL retry: failed to confirm entry")
		return
	}
	stats.Published++
	metrics.RecordWALReplay()
}

func (r *RetryLoop) discard(ctx context.Context, entry *Entry, reason string, stats *RetryStats) {
	if err := r.wal.Discard(ctx, entry.ID, reason); err != nil {
		r.logger.Error().Err(err).Str("entry_id", entry.ID).Msg("WAL retry: failed to discard entry")
		return
	}
	stats.Discarded++
}
