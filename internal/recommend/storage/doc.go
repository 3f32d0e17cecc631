// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

// Package storage provides versioned persistence for trained rule models.
//
// A store owns two things: model payloads, one per version, and a small
// registry document that names the current version and records metadata
// (location, timestamp, rule and itemset counts, checksum) for every version.
// Versions are integers rendered "N.0"; the next version is floor(current)+1.
//
// # Backends
//
//   - FileStore writes association_rules_v{N.0}.json.gz files plus a
//     metadata.json registry in one directory.
//   - BadgerStore keeps payloads and the registry in a BadgerDB instance and
//     commits both in a single transaction.
//
// # Write Path
//
// Save writes the payload first and publishes it by replacing the registry
// afterwards. For FileStore both documents are written to temporary files,
// fsynced, and renamed into place, so a crash at any point leaves the registry
// pointing at the previous, still readable version.
//
// # Payload Format
//
// Payloads are JSON (goccy/go-json), gzip-compressed. The SHA-256 checksum of
// the uncompressed JSON is stored in the registry entry and verified on Load;
// a missing, truncated or tampered payload surfaces as ErrModelNotFound.
//
// # Thread Safety
//
// Saves and prunes are serialized by a single-writer lock. For FileStore the
// lock is also an flock on <dir>/.lock, so setlist-train and the server can
// share one models directory. Reads take no writer lock since saved payloads
// are never modified.
package storage
