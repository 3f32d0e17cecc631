// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

/*
Package wal provides a BadgerDB-backed write-ahead log for outgoing events.

An event payload is written to the log before it is published. A successful
publish confirms the entry, which removes it. Entries that fail stay pending
and are replayed by RetryLoop with exponential backoff until they are
published, exceed MaxRetries, or outlive EntryTTL.

# Key Layout

	pending:<uuid-v7>  JSON-encoded Entry

UUID v7 identifiers sort by creation time, so a prefix scan returns entries
oldest first.

# Usage

	w, err := wal.Open(wal.Config{Path: "/data/wal"}, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	id, err := w.Write(ctx, payload)
	if err := publish(ctx, payload); err != nil {
		_ = w.UpdateAttempt(ctx, id, err.Error())
		return err
	}
	return w.Confirm(ctx, id)

The BadgerDB directory is locked while open; two processes cannot share a
log path.
*/
package wal
