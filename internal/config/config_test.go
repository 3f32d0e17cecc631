// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("defaultConfig().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"bad backend", func(c *Config) { c.Store.Backend = "s3" }, "STORE_BACKEND"},
		{"empty store path", func(c *Config) { c.Store.Path = " " }, "MODELS_DIR"},
		{"zero support", func(c *Config) { c.Mining.MinSupport = 0 }, "MIN_SUPPORT"},
		{"confidence above one", func(c *Config) { c.Mining.MinConfidence = 1.2 }, "MIN_CONFIDENCE"},
		{"itemset size zero", func(c *Config) { c.Mining.MaxItemsetSize = 0 }, "MAX_ITEMSET_SIZE"},
		{"itemset size too large", func(c *Config) { c.Mining.MaxItemsetSize = 11 }, "MAX_ITEMSET_SIZE"},
		{"ftp dataset", func(c *Config) { c.Dataset.URL = "ftp://host/x.csv" }, "DATASET_URL"},
		{"http dataset without host", func(c *Config) { c.Dataset.URL = "http:///x.csv" }, "DATASET_URL"},
		{"zero attempts", func(c *Config) { c.Dataset.MaxAttempts = 0 }, "DATASET_MAX_ATTEMPTS"},
		{"max below default", func(c *Config) { c.Recommend.MaxTopN = 2 }, "RECOMMEND_MAX_TOP_N"},
		{"bad schedule", func(c *Config) { c.Training.Schedule = "every day" }, "TRAINING_SCHEDULE"},
		{"events without url", func(c *Config) { c.Events.Enabled = true; c.Events.NATSURL = "" }, "NATS_URL"},
		{"wildcard subject", func(c *Config) { c.Events.Enabled = true; c.Events.Subject = "setlist.>" }, "EVENTS_SUBJECT"},
		{"wal without retries", func(c *Config) {
			c.Events.Enabled = true
			c.Events.WALPath = "/data/wal"
			c.Events.WALMaxRetries = 0
		}, "EVENTS_WAL_MAX_RETRIES"},
		{"short jwt secret", func(c *Config) { c.Security.AdminJWTSecret = "short" }, "ADMIN_JWT_SECRET"},
		{"zero rate limit", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() = nil, want error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAcceptsLocalDataset(t *testing.T) {
	t.Parallel()

	for _, u := range []string{"/data/playlists.csv", "file:///data/playlists.csv", "https://example.com/p.csv"} {
		cfg := defaultConfig()
		cfg.Dataset.URL = u
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() with dataset %q = %v", u, err)
		}
	}
}

func TestValidateRateLimitDisabled(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Security.RateLimitDisabled = true
	cfg.Security.RateLimitReqs = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with rate limiting disabled = %v", err)
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8080", got)
	}
}
