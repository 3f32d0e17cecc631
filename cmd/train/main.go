// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Command setlist-train runs one training job: fetch the playlist dataset,
// mine frequent itemsets and rules, save the next model version and, when
// EVENTS_ENABLED is set, publish it to NATS. It exits 0 on success and 1 on
// any failure.
//
// Configuration comes from the same sources as setlist-server (DATASET_URL,
// DATASET_NAME, DATASET_VERSION, MODELS_DIR, MIN_SUPPORT, ...). Flags
// override the thresholds and dataset for a single run:
//
//	setlist-train -dataset-url https://example.com/mpd.csv -min-support 0.01
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/app"
	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/recommend/training"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run returns the process exit code.
func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("setlist-train", flag.ContinueOnError)
	var req training.Request
	fs.StringVar(&req.DatasetURL, "dataset-url", "", "dataset URL or path (default DATASET_URL)")
	fs.StringVar(&req.DatasetName, "dataset-name", "", "dataset name recorded in the model")
	fs.StringVar(&req.DatasetVersion, "dataset-version", "", "dataset version recorded in the model")
	fs.Float64Var(&req.MinSupport, "min-support", 0, "minimum itemset support in (0, 1]")
	minConfidence := fs.Float64("min-confidence", 0, "minimum rule confidence in [0, 1] (default MIN_CONFIDENCE)")
	fs.IntVar(&req.MaxItemsetSize, "max-itemset-size", 0, "largest itemset to mine")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "min-confidence" {
			req.MinConfidence = minConfidence
		}
	})

	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	app.InitLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := train(ctx, cfg, req, logging.Logger(), stdout); err != nil {
		logging.Error().Err(err).Msg("Training job failed")
		return 1
	}
	return 0
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func train(ctx context.Context, cfg *config.Config, req training.Request, logger zerolog.Logger, stdout io.Writer) error {
	components, err := app.Build(cfg, "setlist-train", logger)
	if err != nil {
		return err
	}
	defer components.Close()

	// Deliver events left behind by earlier runs before adding a new one.
	if components.RetryLoop != nil {
		components.RetryLoop.RunOnce(ctx)
	}

	if cfg.Training.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Training.Timeout)
		defer cancel()
	}

	res, err := components.Trainer.Train(logging.ContextWithNewCorrelationID(ctx), req)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout, "version=%s rules=%d itemsets=%d playlists=%d path=%s\n",
		res.Info.Version, res.Info.NumRules, res.Info.NumItemsets, res.Stats.TotalPlaylists, res.Info.Path)
	return err
}
