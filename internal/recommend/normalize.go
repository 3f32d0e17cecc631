// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package recommend

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeSongName returns the comparison form of a song name: surrounding
// whitespace removed and Unicode case folded. It is never shown to clients.
func NormalizeSongName(name string) string {
	// cases.Caser is stateful, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(name))
}
