// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package models defines data structures shared across Setlist.

It is the single source of truth for the mining domain (items, playlists,
itemsets, rules, trained models), the model registry persisted by the model
store, and the request/response shapes of the HTTP API.

Key Components:

  - Item: song identifier of the form "track,artist"
  - Playlist: one transaction fed to the vertical database builder
  - Itemset, Rule: output of the Eclat miner and the rule generator
  - Model: immutable snapshot of one training run
  - ModelInfo, Registry: versioned metadata owned by the model store
  - APIResponse: standardized HTTP response envelope

Models are never mutated after a training run creates them; a retrain
produces a new Model under a new version.
*/
package models
