// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/setlist/internal/app"
	"github.com/tomtom215/setlist/internal/auth"
	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/supervisor"
	"github.com/tomtom215/setlist/internal/supervisor/services"
)

const modelLoadTimeout = 2 * time.Minute

func main() {
	adminToken := flag.String("admin-token", "", "print an admin bearer token for `username` and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	app.InitLogging(cfg)

	if *adminToken != "" {
		if err := printAdminToken(cfg, *adminToken); err != nil {
			logging.Fatal().Err(err).Msg("Failed to mint admin token")
		}
		return
	}

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func printAdminToken(cfg *config.Config, username string) error {
	m, err := auth.NewJWTManager(cfg.Security.AdminJWTSecret, cfg.Security.AdminTokenTTL)
	if err != nil {
		return err
	}
	token, err := m.GenerateToken(username, auth.RoleAdmin)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, token)
	return err
}

//nolint:gocyclo // sequential setup steps
func run(cfg *config.Config) error {
	logger := logging.Logger()
	logger.Info().
		Str("addr", cfg.Server.Addr()).
		Str("store_backend", cfg.Store.Backend).
		Str("store_path", cfg.Store.Path).
		Bool("events", cfg.Events.Enabled).
		Msg("Starting Setlist")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(cfg, "setlist-server", logger)
	if err != nil {
		return err
	}
	defer components.Close()

	engine, err := recommend.NewEngine(app.EngineConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	if err := app.LoadCurrentModel(ctx, engine, components.Store, modelLoadTimeout); err != nil {
		// The watcher and subscriber retry; the API reports MODEL_UNAVAILABLE meanwhile.
		logger.Error().Err(err).Msg("Failed to load current model")
	}
	if st := engine.Status(); st.Loaded {
		logger.Info().Str("version", st.Version).Int("rules", st.NumRules).Msg("Model ready")
	} else {
		logger.Warn().Msg("No model loaded; serving degraded until one is trained")
	}

	// In-process training swaps the new model in directly.
	components.Trainer.AddListener(func(ctx context.Context, _ models.ModelInfo) error {
		_, err := engine.Reload(ctx, components.Store)
		return err
	})
	reload := func(ctx context.Context) error {
		_, err := engine.Reload(ctx, components.Store)
		return err
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Model layer
	if cfg.Recommend.WatchRegistry {
		if fs, ok := components.Store.(interface{ RegistryPath() string }); ok {
			tree.AddModelService(services.NewRegistryWatcherService(fs.RegistryPath(), reload, cfg.Recommend.WatchDebounce, logger))
		} else {
			logger.Info().Str("backend", cfg.Store.Backend).Msg("Registry watching needs the file backend; disabled")
		}
	}
	if cfg.Training.Schedule != "" || cfg.Training.OnStartup {
		trainingSvc, err := services.NewTrainingService(components.Trainer, services.TrainingServiceConfig{
			Schedule:  cfg.Training.Schedule,
			OnStartup: cfg.Training.OnStartup,
			Timeout:   cfg.Training.Timeout,
		}, logger)
		if err != nil {
			return err
		}
		tree.AddModelService(trainingSvc)
	}

	// Messaging layer
	if components.NATS != nil {
		sub := newModelSubscriber(components, cfg.Events.Subject, reload, logger)
		tree.AddMessagingService(services.NewSubscriberService(sub))
	}
	if components.RetryLoop != nil {
		tree.AddMessagingService(components.RetryLoop)
	}

	// API layer
	handler, err := buildRouter(cfg, engine, components)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logger))

	logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // report is best effort
	for _, svc := range unstopped {
		logger.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}
