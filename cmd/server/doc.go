// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Command setlist-server serves song recommendations from the current
association-rule model.

Startup order:

 1. Configuration: defaults, config.yaml, then environment variables (koanf)
 2. Logging: zerolog, level and format from LOG_LEVEL and LOG_FORMAT
 3. Model store: file (MODELS_DIR) or badger (STORE_BACKEND=badger)
 4. Engine: loads the current model if one exists
 5. Supervisor tree: HTTP API, registry watcher, scheduled training, the
    NATS model-event subscriber and the event WAL retry loop, each enabled
    by configuration

A server with an empty store starts degraded; /health/ready answers 503
until a model is trained or published.

# Admin tokens

When ADMIN_JWT_SECRET is set, POST /train and POST /reload-model require an
admin bearer token. Mint one with the same configuration:

	setlist-server -admin-token ops@example.com

The token is printed to stdout and the process exits.
*/
package main
