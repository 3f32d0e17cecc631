// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/models"
)

// Journal persists encoded events until they are confirmed delivered.
// *wal.WAL satisfies it.
type Journal interface {
	Write(ctx context.Context, payload []byte) (string, error)
	Confirm(ctx context.Context, id string) error
	UpdateAttempt(ctx context.Context, id, lastErr string) error
}

// DurablePublisher journals each event before publishing it. Events that
// fail to publish stay in the journal for a retry loop to deliver.
type DurablePublisher struct {
	pub     *Publisher
	journal Journal
	logger  zerolog.Logger
}

// NewDurablePublisher wraps pub with journal.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewDurablePublisher(pub *Publisher, journal Journal, logger zerolog.Logger) *DurablePublisher {
	return &DurablePublisher{
		pub:     pub,
		journal: journal,
		logger:  logger.With().Str("component", "events").Logger(),
	}
}

// PublishModel journals and publishes a saved model. It matches the
// training listener signature.
func (d *DurablePublisher) PublishModel(ctx context.Context, info models.ModelInfo) error {
	data, err := Marshal(NewModelPublished(&info))
	if err != nil {
		return err
	}

	id, err := d.journal.Write(ctx, data)
	if err != nil {
		// Without a journal entry the event is still worth one direct attempt.
		d.logger.Error().Err(err).Str("version", info.Version).Msg("Failed to journal model event")
		return d.pub.PublishPayload(ctx, data)
	}

	if err := d.pub.PublishPayload(ctx, data); err != nil {
		if uerr := d.journal.UpdateAttempt(ctx, id, err.Error()); uerr != nil {
			d.logger.Warn().Err(uerr).Str("entry_id", id).Msg("Failed to record publish attempt")
		}
		return fmt.Errorf("model %s queued for retry: %w", info.Version, err)
	}

	if err := d.journal.Confirm(ctx, id); err != nil {
		// The event was delivered; a stale entry is replayed at most once more.
		d.logger.Warn().Err(err).Str("entry_id", id).Msg("Failed to confirm journaled event")
	}
	return nil
}
