// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package recommend

import (
	"fmt"
	"time"
)

// Config contains configuration for the recommendation engine.
type Config struct {
	// DefaultTopN is used when a request asks for zero or fewer results.
	DefaultTopN int `json:"default_top_n"`

	// MaxTopN clamps larger requests.
	MaxTopN int `json:"max_top_n"`

	// Cache contains response caching parameters.
	Cache CacheConfig `json:"cache"`
}

// CacheConfig contains response cache parameters.
type CacheConfig struct {
	// Enabled turns on the response cache.
	Enabled bool `json:"enabled"`

	// Size is the maximum number of cached responses.
	Size int `json:"size"`

	// TTL is how long a cached response stays valid.
	TTL time.Duration `json:"ttl"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DefaultTopN: 5,
		MaxTopN:     50,
		Cache: CacheConfig{
			Enabled: true,
			Size:    1024,
			TTL:     10 * time.Minute,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DefaultTopN < 1 {
		return fmt.Errorf("default_top_n must be positive, got %d", c.DefaultTopN)
	}
	if c.MaxTopN < c.DefaultTopN {
		return fmt.Errorf("max_top_n must be >= default_top_n, got %d < %d", c.MaxTopN, c.DefaultTopN)
	}
	if c.Cache.Enabled {
		if c.Cache.Size < 1 {
			return fmt.Errorf("cache.size must be positive, got %d", c.Cache.Size)
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
		}
	}
	return nil
}

// resolveTopN applies the default and the clamp.
func (c *Config) resolveTopN(topN int) int {
	if topN <= 0 {
		topN = c.DefaultTopN
	}
	if topN > c.MaxTopN {
		topN = c.MaxTopN
	}
	return topN
}
