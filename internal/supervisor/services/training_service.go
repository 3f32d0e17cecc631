// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/recommend/training"
)

// Trainer runs one training pipeline. *training.Trainer satisfies it.
type Trainer interface {
	Train(ctx context.Context, req training.Request) (*training.Result, error)
}

// TrainingServiceConfig holds configuration for scheduled training.
type TrainingServiceConfig struct {
	// Schedule is a standard cron expression or descriptor such as
	// "0 3 * * *" or "@every 6h". Empty disables scheduled runs.
	Schedule string

	// OnStartup runs training once when the service starts.
	OnStartup bool

	// Timeout bounds each run. Default: 30m
	Timeout time.Duration
}

// TrainingService retrains the model on a cron schedule.
type TrainingService struct {
	trainer Trainer
	config  TrainingServiceConfig
	logger  zerolog.Logger
	name    string
}

// NewTrainingService validates the schedule and creates the service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainingService(trainer Trainer, cfg TrainingServiceConfig, logger zerolog.Logger) (*TrainingService, error) {
	if trainer == nil {
		return nil, errors.New("training service: trainer is required")
	}
	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("invalid training schedule %q: %w", cfg.Schedule, err)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &TrainingService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "training").Logger(),
		name:    "training-service",
	}, nil
}

// Serve implements suture.Service. Failed runs are logged and retried at
// the next scheduled time; they never fail the service.
func (s *TrainingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.OnStartup).
		Str("schedule", s.config.Schedule).
		Msg("Training service starting")

	if s.config.OnStartup {
		s.run(ctx, "startup")
	}

	if s.config.Schedule == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.config.Schedule, func() { s.run(ctx, "schedule") }); err != nil {
		return fmt.Errorf("schedule training: %w", err)
	}
	c.Start()

	<-ctx.Done()
	s.logger.Info().Msg("Training service shutting down")

	// Wait for a running job; it sees the canceled ctx and aborts.
	<-c.Stop().Done()
	return ctx.Err()
}

func (s *TrainingService) run(ctx context.Context, trigger string) {
	runCtx, cancel := context.WithTimeout(logging.ContextWithNewCorrelationID(ctx), s.config.Timeout)
	defer cancel()

	res, err := s.trainer.Train(runCtx, training.Request{})
	switch {
	case errors.Is(err, training.ErrTrainingInProgress):
		s.logger.Info().Str("trigger", trigger).Msg("Training skipped, a run is already in progress")
	case err != nil:
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("Scheduled training failed")
	default:
		s.logger.Info().
			Str("trigger", trigger).
			Str("version", res.Info.Version).
			Dur("duration", res.Duration).
			Msg("Scheduled training completed")
	}
}

// String identifies the service in supervisor logs.
func (s *TrainingService) String() string {
	return s.name
}
