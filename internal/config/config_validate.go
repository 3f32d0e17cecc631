// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// minJWTSecretLength is the shortest accepted admin JWT secret.
const minJWTSecretLength = 32

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateMining(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	if err := c.validateTraining(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	return c.validateSecurity()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server read and write timeouts must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error (got %q)", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "file", "badger":
	default:
		return fmt.Errorf("STORE_BACKEND must be file or badger (got %q)", c.Store.Backend)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("MODELS_DIR is required")
	}
	if c.Store.KeepVersions < 0 {
		return fmt.Errorf("STORE_KEEP_VERSIONS must be >= 0, got %d", c.Store.KeepVersions)
	}
	return nil
}

func (c *Config) validateMining() error {
	m := c.Mining
	if m.MinSupport <= 0 || m.MinSupport > 1 {
		return fmt.Errorf("MIN_SUPPORT must be in (0, 1], got %v", m.MinSupport)
	}
	if m.MinConfidence <= 0 || m.MinConfidence > 1 {
		return fmt.Errorf("MIN_CONFIDENCE must be in (0, 1], got %v", m.MinConfidence)
	}
	if m.MaxItemsetSize < 1 || m.MaxItemsetSize > 10 {
		return fmt.Errorf("MAX_ITEMSET_SIZE must be between 1 and 10, got %d", m.MaxItemsetSize)
	}
	if m.Workers < 0 {
		return fmt.Errorf("MINING_WORKERS must be >= 0, got %d", m.Workers)
	}
	return nil
}

func (c *Config) validateDataset() error {
	d := c.Dataset
	if d.URL != "" {
		u, err := url.Parse(d.URL)
		if err != nil {
			return fmt.Errorf("DATASET_URL is invalid: %w", err)
		}
		switch u.Scheme {
		case "http", "https":
			if u.Host == "" {
				return fmt.Errorf("DATASET_URL must include a host")
			}
		case "file", "":
		default:
			return fmt.Errorf("DATASET_URL scheme %q is not supported", u.Scheme)
		}
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("DATASET_TIMEOUT must be positive")
	}
	if d.MaxAttempts < 1 {
		return fmt.Errorf("DATASET_MAX_ATTEMPTS must be >= 1, got %d", d.MaxAttempts)
	}
	if d.RetryInterval < 0 {
		return fmt.Errorf("DATASET_RETRY_INTERVAL must be >= 0")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.DefaultTopN < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_TOP_N must be >= 1, got %d", r.DefaultTopN)
	}
	if r.MaxTopN < r.DefaultTopN {
		return fmt.Errorf("RECOMMEND_MAX_TOP_N (%d) must be >= RECOMMEND_DEFAULT_TOP_N (%d)", r.MaxTopN, r.DefaultTopN)
	}
	if r.CacheEnabled && r.CacheSize < 1 {
		return fmt.Errorf("RECOMMEND_CACHE_SIZE must be >= 1 when caching is enabled")
	}
	if r.WatchDebounce < 0 {
		return fmt.Errorf("RECOMMEND_WATCH_DEBOUNCE must be >= 0")
	}
	return nil
}

func (c *Config) validateTraining() error {
	if c.Training.Schedule != "" {
		if _, err := cron.ParseStandard(c.Training.Schedule); err != nil {
			return fmt.Errorf("TRAINING_SCHEDULE is invalid: %w", err)
		}
	}
	if c.Training.Timeout <= 0 {
		return fmt.Errorf("TRAINING_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required when EVENTS_ENABLED=true")
	}
	if c.Events.Subject == "" || strings.ContainsAny(c.Events.Subject, " \t*>") {
		return fmt.Errorf("EVENTS_SUBJECT must be a literal NATS subject (got %q)", c.Events.Subject)
	}
	if c.Events.WALPath != "" {
		if c.Events.WALRetryInterval <= 0 || c.Events.WALEntryTTL <= 0 {
			return fmt.Errorf("EVENTS_WAL_RETRY_INTERVAL and EVENTS_WAL_ENTRY_TTL must be positive")
		}
		if c.Events.WALMaxRetries < 1 {
			return fmt.Errorf("EVENTS_WAL_MAX_RETRIES must be at least 1 (got %d)", c.Events.WALMaxRetries)
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	if !s.RateLimitDisabled {
		if s.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be >= 1, got %d", s.RateLimitReqs)
		}
		if s.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	if s.AdminJWTSecret != "" && len(s.AdminJWTSecret) < minJWTSecretLength {
		return fmt.Errorf("ADMIN_JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if s.AdminTokenTTL <= 0 {
		return fmt.Errorf("ADMIN_TOKEN_TTL must be positive")
	}
	return nil
}
