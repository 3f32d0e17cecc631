// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package training runs the model training pipeline.

A run fetches a playlist dataset, builds the vertical database, mines
frequent itemsets with Eclat, derives association rules and saves the
result as the next model version:

	fetch -> build -> mine -> rules -> save -> prune

Only one run executes at a time per Trainer; a concurrent Train returns
ErrTrainingInProgress immediately. Listeners registered with AddListener
run after a successful save and are used to hot swap the serving engine
and publish model events.
*/
package training
