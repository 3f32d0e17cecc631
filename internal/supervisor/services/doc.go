// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package services provides suture.Service wrappers for Setlist components.

Each wrapper translates a component lifecycle (ListenAndServe, a cron
scheduler, an fsnotify loop, a blocking Run) into suture's Serve pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTPServerService runs the API server and shuts it down gracefully when the
supervisor stops.

TrainingService retrains on a robfig/cron schedule and optionally once at
startup. Failed runs are logged and do not restart the service.

RegistryWatcherService reloads the engine when the file store's registry is
replaced, which is how a separate setlist-train process hands a new model
to running servers.

SubscriberService runs the NATS model-published subscriber; a dropped
subscription is returned as a failure so suture resubscribes with backoff.

Every service implements fmt.Stringer so suture logs carry its name.
*/
package services
