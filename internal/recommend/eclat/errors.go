// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package eclat

import "errors"

var (
	// ErrInvalidDataset is returned for empty inputs or playlists without items.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrInvalidParameter is returned for out-of-range mining thresholds.
	ErrInvalidParameter = errors.New("invalid mining parameter")

	// ErrInternalInconsistency means an itemset's subset support was missing.
	// It cannot happen for miner output and always aborts the run.
	ErrInternalInconsistency = errors.New("internal inconsistency")
)
