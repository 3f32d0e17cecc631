// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
//
// Configuration is loaded in layers (see LoadWithKoanf): struct defaults,
// then an optional YAML file, then environment variables.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Store     StoreConfig     `koanf:"store"`
	Mining    MiningConfig    `koanf:"mining"`
	Dataset   DatasetConfig   `koanf:"dataset"`
	Recommend RecommendConfig `koanf:"recommend"`
	Training  TrainingConfig  `koanf:"training"`
	Events    EventsConfig    `koanf:"events"`
	Security  SecurityConfig  `koanf:"security"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// StoreConfig selects and configures the model store backend.
type StoreConfig struct {
	// Backend is "file" (gzip payloads plus metadata.json) or "badger".
	Backend string `koanf:"backend"`

	// Path is the models directory (file) or BadgerDB directory (badger).
	Path string `koanf:"path"`

	// KeepVersions prunes older versions after each save when > 0.
	KeepVersions int `koanf:"keep_versions"`
}

// MiningConfig holds the default training thresholds.
type MiningConfig struct {
	MinSupport     float64 `koanf:"min_support"`
	MinConfidence  float64 `koanf:"min_confidence"`
	MaxItemsetSize int     `koanf:"max_itemset_size"`

	// Workers bounds parallel branch mining. 0 means GOMAXPROCS.
	Workers int `koanf:"workers"`
}

// DatasetConfig configures where training data comes from.
type DatasetConfig struct {
	// URL is an http(s) URL, file:// URL, or local path of the playlist CSV.
	URL     string `koanf:"url"`
	Name    string `koanf:"name"`
	Version string `koanf:"version"`

	Timeout       time.Duration `koanf:"timeout"`
	MaxAttempts   int           `koanf:"max_attempts"`
	RetryInterval time.Duration `koanf:"retry_interval"`
}

// RecommendConfig configures the recommendation engine.
type RecommendConfig struct {
	DefaultTopN int `koanf:"default_top_n"`
	MaxTopN     int `koanf:"max_top_n"`

	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheSize    int           `koanf:"cache_size"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`

	// WatchRegistry reloads the engine when the file store registry changes.
	WatchRegistry bool          `koanf:"watch_registry"`
	WatchDebounce time.Duration `koanf:"watch_debounce"`
}

// TrainingConfig configures in-process training runs.
type TrainingConfig struct {
	// Schedule is a cron expression (robfig/cron syntax). Empty disables scheduling.
	Schedule  string        `koanf:"schedule"`
	OnStartup bool          `koanf:"on_startup"`
	Timeout   time.Duration `koanf:"timeout"`
}

// EventsConfig configures model-published notifications over NATS.
type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	NATSURL string `koanf:"nats_url"`
	Subject string `koanf:"subject"`

	// WALPath journals events before publishing when set. Each process
	// needs its own path.
	WALPath          string        `koanf:"wal_path"`
	WALRetryInterval time.Duration `koanf:"wal_retry_interval"`
	WALMaxRetries    int           `koanf:"wal_max_retries"`
	WALEntryTTL      time.Duration `koanf:"wal_entry_ttl"`
}

// SecurityConfig holds HTTP security settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// AdminJWTSecret enables HS256 bearer auth on admin routes when set.
	AdminJWTSecret string `koanf:"admin_jwt_secret"`

	// AdminTokenTTL is the lifetime of tokens minted with -admin-token.
	AdminTokenTTL time.Duration `koanf:"admin_token_ttl"`
}

// Load reads configuration from all sources in order of precedence:
//  1. Built-in defaults
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Environment variables
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
