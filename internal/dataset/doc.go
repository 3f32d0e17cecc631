// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package dataset ingests playlist datasets for training.

A dataset is a CSV file with a header row containing at least the columns
pid, track_name and artist_name, in any order. Each row is one song in one
playlist; the item identity is "track_name,artist_name".

	pid,track_name,artist_name,album_name
	0,Closer,The Chainsmokers,Collage
	0,Roses,The Chainsmokers,Bouquet
	1,Closer,The Chainsmokers,Collage

Fetcher reads datasets from http(s) URLs, file:// URLs and local paths.
Remote downloads go through a circuit breaker and are retried on transport
errors, 5xx and 429 responses, paced by a rate limiter.
*/
package dataset
