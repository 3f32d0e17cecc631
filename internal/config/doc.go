// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package config provides centralized configuration management for Setlist.

Configuration is layered with Koanf v2. Later sources override earlier ones:

 1. Struct defaults (defaultConfig)
 2. A YAML file: CONFIG_PATH, or the first of config.yaml, config.yml,
    /etc/setlist/config.yaml, /etc/setlist/config.yml
 3. Environment variables, through an explicit mapping table

# Configuration Structure

  - ServerConfig: HTTP listen address and timeouts
  - LoggingConfig: zerolog level, format and caller info
  - StoreConfig: model store backend (file or badger) and location
  - MiningConfig: default min support, min confidence, max itemset size
  - DatasetConfig: training CSV location, fetch timeout and retries
  - RecommendConfig: top-N defaults, response cache, registry watching
  - TrainingConfig: cron schedule and timeout for in-process training
  - EventsConfig: NATS model-published notifications and the event WAL
  - SecurityConfig: CORS, rate limiting, admin JWT secret

# Environment Variables

Training job:
  - DATASET_URL, DATASET_NAME, DATASET_VERSION
  - MODELS_DIR: model store location (default: /data/models)
  - MIN_SUPPORT (default: 0.05), MIN_CONFIDENCE (default: 0.3)
  - MAX_ITEMSET_SIZE (default: 5)

Server:
  - HTTP_HOST, HTTP_PORT (default: 8080)
  - LOG_LEVEL, LOG_FORMAT
  - RECOMMEND_DEFAULT_TOP_N, RECOMMEND_MAX_TOP_N
  - TRAINING_SCHEDULE: cron expression for scheduled retraining
  - EVENTS_ENABLED, NATS_URL, EVENTS_SUBJECT
  - EVENTS_WAL_PATH: journal events before publishing (one path per process)
  - CORS_ORIGINS (comma separated), RATE_LIMIT_REQUESTS, ADMIN_JWT_SECRET

# Usage Example

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	srv := &http.Server{Addr: cfg.Server.Addr()}
*/
package config
