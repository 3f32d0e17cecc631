// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/setlist/config.yaml",
	"/etc/setlist/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Store: StoreConfig{
			Backend:      "file",
			Path:         "/data/models",
			KeepVersions: 0,
		},
		Mining: MiningConfig{
			MinSupport:     0.05,
			MinConfidence:  0.3,
			MaxItemsetSize: 5,
			Workers:        0,
		},
		Dataset: DatasetConfig{
			Timeout:       2 * time.Minute,
			MaxAttempts:   3,
			RetryInterval: 2 * time.Second,
		},
		Recommend: RecommendConfig{
			DefaultTopN:   5,
			MaxTopN:       50,
			CacheEnabled:  true,
			CacheSize:     1024,
			CacheTTL:      10 * time.Minute,
			WatchRegistry: true,
			WatchDebounce: 500 * time.Millisecond,
		},
		Training: TrainingConfig{
			Timeout: 30 * time.Minute,
		},
		Events: EventsConfig{
			Enabled: false,
			NATSURL: "nats://127.0.0.1:4222",
			Subject: "setlist.models.published",

			WALRetryInterval: 30 * time.Second,
			WALMaxRetries:    20,
			WALEntryTTL:      24 * time.Hour,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			AdminTokenTTL:   24 * time.Hour,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources.
//
// Loading order (later sources override earlier):
//  1. Struct defaults
//  2. Config file (YAML), if found
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the config file to load, or "" when none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are koanf paths that accept comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated strings to slices for known paths.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Store
	"models_dir":          "store.path",
	"store_backend":       "store.backend",
	"store_keep_versions": "store.keep_versions",

	// Mining
	"min_support":      "mining.min_support",
	"min_confidence":   "mining.min_confidence",
	"max_itemset_size": "mining.max_itemset_size",
	"mining_workers":   "mining.workers",

	// Dataset
	"dataset_url":            "dataset.url",
	"dataset_name":           "dataset.name",
	"dataset_version":        "dataset.version",
	"dataset_timeout":        "dataset.timeout",
	"dataset_max_attempts":   "dataset.max_attempts",
	"dataset_retry_interval": "dataset.retry_interval",

	// Recommend
	"recommend_default_top_n":  "recommend.default_top_n",
	"recommend_max_top_n":      "recommend.max_top_n",
	"recommend_cache_enabled":  "recommend.cache_enabled",
	"recommend_cache_size":     "recommend.cache_size",
	"recommend_cache_ttl":      "recommend.cache_ttl",
	"recommend_watch_registry": "recommend.watch_registry",
	"recommend_watch_debounce": "recommend.watch_debounce",

	// Training
	"training_schedule":   "training.schedule",
	"training_on_startup": "training.on_startup",
	"training_timeout":    "training.timeout",

	// Events
	"events_enabled": "events.enabled",
	"nats_url":       "events.nats_url",
	"events_subject": "events.subject",

	"events_wal_path":           "events.wal_path",
	"events_wal_retry_interval": "events.wal_retry_interval",
	"events_wal_max_retries":    "events.wal_max_retries",
	"events_wal_entry_ttl":      "events.wal_entry_ttl",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"admin_jwt_secret":    "security.admin_jwt_secret",
	"admin_token_ttl":     "security.admin_token_ttl",
}

// envTransformFunc transforms environment variable names to koanf paths.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	// Returning "" skips the variable so unrelated environment stays out of config.
	return ""
}

