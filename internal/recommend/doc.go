// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package recommend serves song recommendations from a trained association
// rule model.
//
// # Architecture
//
// The package is split by lifecycle:
//
//   - eclat: builds the vertical database, mines frequent itemsets and
//     derives association rules
//   - storage: versioned model persistence (file or BadgerDB backend)
//   - training: the fetch, mine, save, notify pipeline
//   - recommend (this package): the read path
//
// # Scoring
//
// A rule matches a request when every antecedent song name is in the request.
// Each consequent song not already in the request is scored
// confidence × lift, and a song reachable from several rules keeps its
// highest score. Results are ordered by score descending, then by song name.
// Song names are compared after trimming and Unicode case folding.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), logger)
//	if err := engine.Reload(ctx, store); err != nil { ... }
//
//	res, err := engine.Recommend(ctx, []string{"Closer"}, 5)
//
// # Thread Safety
//
// The loaded model lives behind an atomic pointer. Swap and Reload replace it
// without blocking readers; a Recommend call sees either the old or the new
// model, never a mix.
package recommend
