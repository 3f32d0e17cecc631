// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package eclat mines frequent itemsets and association rules from playlists.
//
// The pipeline has three stages:
//
//   - BuildVerticalDB converts playlists into tid-lists: for every item, the
//     set of transaction ids (roaring bitmaps) that contain it.
//   - Miner runs Eclat, a depth-first search that extends itemsets one item at
//     a time in lexicographic order and counts support by intersecting
//     tid-lists instead of rescanning transactions. Infrequent extensions are
//     pruned since no superset of an infrequent itemset can be frequent.
//   - GenerateRules splits every frequent itemset of size two or more into
//     antecedent => consequent pairs and keeps those above a confidence floor.
//
// # Determinism
//
// Miner output is ordered: all frequent single items in lexicographic order,
// then each seed's branch in pre-order. Seed branches are mined concurrently
// and merged by seed index, so the output does not depend on the worker count.
//
// # Example
//
//	db, err := eclat.BuildVerticalDB(playlists)
//	if err != nil {
//	    return err
//	}
//	miner, err := eclat.NewMiner(eclat.MinerConfig{MinSupport: 0.05, MaxItemsetSize: 5})
//	if err != nil {
//	    return err
//	}
//	itemsets, err := miner.Mine(db)
//	if err != nil {
//	    return err
//	}
//	rules, err := eclat.GenerateRules(itemsets, db.Transactions, 0.3)
package eclat
