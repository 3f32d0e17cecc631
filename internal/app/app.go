// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package app assembles the components shared by setlist-server and
// setlist-train from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/events"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/recommend/storage"
	"github.com/tomtom215/setlist/internal/recommend/training"
	"github.com/tomtom215/setlist/internal/wal"
)

// Components holds the model store, the training pipeline and, when events
// are enabled, the NATS connection and publisher. WAL and RetryLoop are set
// when events are journaled.
type Components struct {
	Store     storage.Store
	Fetcher   *dataset.Fetcher
	Trainer   *training.Trainer
	NATS      *natsgo.Conn
	Publisher *events.Publisher
	WAL       *wal.WAL
	RetryLoop *wal.RetryLoop

	logger zerolog.Logger
}

// InitLogging configures the global logger from cfg.
func InitLogging(cfg *config.Config) {
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
}

// Build opens the store and creates the trainer. With events enabled it
// also connects to NATS and publishes every saved model. clientName
// identifies the process to the NATS server.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Build(cfg *config.Config, clientName string, logger zerolog.Logger) (*Components, error) {
	store, err := storage.Open(storage.Config{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open model store: %w", err)
	}

	c := &Components{Store: store, logger: logger}

	c.Fetcher = dataset.NewFetcher(dataset.FetcherConfig{
		Timeout:       cfg.Dataset.Timeout,
		MaxAttempts:   cfg.Dataset.MaxAttempts,
		RetryInterval: cfg.Dataset.RetryInterval,
	}, logger)

	c.Trainer, err = training.NewTrainer(TrainerConfig(cfg), store, c.Fetcher, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.Events.Enabled {
		c.NATS, err = events.Connect(events.ConnConfig{
			URL:  cfg.Events.NATSURL,
			Name: clientName,
		}, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		c.Publisher = events.NewPublisher(c.NATS, cfg.Events.Subject, logger)

		if cfg.Events.WALPath == "" {
			c.Trainer.AddListener(c.Publisher.PublishModel)
			return c, nil
		}

		c.WAL, err = wal.Open(wal.Config{
			Path:          cfg.Events.WALPath,
			RetryInterval: cfg.Events.WALRetryInterval,
			MaxRetries:    cfg.Events.WALMaxRetries,
			EntryTTL:      cfg.Events.WALEntryTTL,
		}, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		durable := events.NewDurablePublisher(c.Publisher, c.WAL, logger)
		c.Trainer.AddListener(durable.PublishModel)
		c.RetryLoop = wal.NewRetryLoop(c.WAL, c.Publisher.PublishPayload, logger)
	}

	return c, nil
}

// Close releases the publisher, the WAL, the NATS connection and the store.
func (c *Components) Close() {
	if c.Publisher != nil {
		_ = c.Publisher.Close()
	}
	if c.WAL != nil {
		if err := c.WAL.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Error closing WAL")
		}
	}
	if c.NATS != nil {
		// Drain flushes pending publishes before closing.
		if err := c.NATS.Drain(); err != nil {
			c.logger.Warn().Err(err).Msg("NATS drain failed")
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Error closing model store")
		}
	}
}

// TrainerConfig maps the mining, dataset and store settings.
func TrainerConfig(cfg *config.Config) training.Config {
	return training.Config{
		MinSupport:     cfg.Mining.MinSupport,
		MinConfidence:  cfg.Mining.MinConfidence,
		MaxItemsetSize: cfg.Mining.MaxItemsetSize,
		Workers:        cfg.Mining.Workers,
		DatasetURL:     cfg.Dataset.URL,
		DatasetName:    cfg.Dataset.Name,
		DatasetVersion: cfg.Dataset.Version,
		KeepVersions:   cfg.Store.KeepVersions,
	}
}

// EngineConfig maps the recommend settings.
func EngineConfig(cfg *config.Config) *recommend.Config {
	return &recommend.Config{
		DefaultTopN: cfg.Recommend.DefaultTopN,
		MaxTopN:     cfg.Recommend.MaxTopN,
		Cache: recommend.CacheConfig{
			Enabled: cfg.Recommend.CacheEnabled,
			Size:    cfg.Recommend.CacheSize,
			TTL:     cfg.Recommend.CacheTTL,
		},
	}
}

// LoadCurrentModel loads the store's current model into engine. An empty
// store is not an error; the engine stays unloaded until the first save.
func LoadCurrentModel(ctx context.Context, engine *recommend.Engine, store storage.Store, timeout time.Duration) error {
	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := engine.Reload(loadCtx, store); err != nil && !errors.Is(err, storage.ErrNoModel) {
		return err
	}
	return nil
}
