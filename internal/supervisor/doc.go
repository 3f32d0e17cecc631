// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package supervisor provides process supervision for Setlist using suture v4.

Long-running services are grouped into three layers so a failure in one
restarts only that layer:

	RootSupervisor ("setlist")
	├── ModelSupervisor ("model-layer")
	│   ├── RegistryWatcherService (file store, RECOMMEND_WATCH_REGISTRY)
	│   └── TrainingService (TRAINING_SCHEDULE or TRAINING_ON_STARTUP)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── SubscriberService (EVENTS_ENABLED)
	│   └── wal.RetryLoop (EVENTS_WAL_PATH)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Suture events (restarts, backoff, timeouts) are logged through sutureslog,
bridged to zerolog by logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Service wrappers live in the services subpackage.
*/
package supervisor
