// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package events publishes and consumes model-published notifications over NATS.

After a training run saves a model, the trainer publishes a ModelPublished
event on the configured subject (default "setlist.models.published"). API
servers subscribe and reload their engine, so a one-shot training job on a
shared volume propagates to every replica without polling.

Events are JSON encoded with goccy/go-json:

	{"version":"3.0","path":"/data/models/association_rules_v3.0.json.gz",
	 "timestamp":"2026-01-02T03:04:05Z","num_rules":1200,"num_itemsets":450}

Publishing goes through a gobreaker circuit breaker so an unreachable NATS
server does not stall training. Delivery is at-most-once; a missed event is
recovered by the registry watcher or a manual /reload-model.

DurablePublisher journals each event in a wal.WAL first. Events that fail to
publish stay pending until wal.RetryLoop delivers them.
*/
package events
