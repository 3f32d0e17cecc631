// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package cache provides a thread-safe, generic LRU cache with TTL expiration.

The recommendation engine uses it to memoize responses for repeated song
lists. Entries are keyed by model version, so a model swap followed by Purge
never serves results computed against an older model.

# Usage

	c := cache.NewLRU[string, []string](1024, 10*time.Minute)
	c.Add("v1|5|closer", []string{"Roses"})
	if songs, ok := c.Get("v1|5|closer"); ok {
	    // use songs
	}
*/
package cache
