// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package eclat

import (
	"fmt"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/tomtom215/setlist/internal/models"
)

// VerticalDB is the vertical layout of a set of transactions: every item maps
// to the ids of the transactions that contain it.
type VerticalDB struct {
	Transactions int
	TidLists     map[models.Item]*roaring.Bitmap
}

// BuildVerticalDB assigns transaction ids in input order and builds tid-lists.
// Every playlist must contribute at least one item.
func BuildVerticalDB(playlists []models.Playlist) (*VerticalDB, error) {
	if len(playlists) == 0 {
		return nil, fmt.Errorf("%w: no playlists", ErrInvalidDataset)
	}
	if len(playlists) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d playlists exceeds transaction id space", ErrInvalidDataset, len(playlists))
	}

	tids := make(map[models.Item]*roaring.Bitmap)
	for i, p := range playlists {
		if len(p.Items) == 0 {
			return nil, fmt.Errorf("%w: playlist %d (id %q) has no items", ErrInvalidDataset, i, p.ID)
		}
		tid := uint32(i) //nolint:gosec // bounded by the MaxUint32 check above
		for _, item := range p.Items {
			bm, ok := tids[item]
			if !ok {
				bm = roaring.New()
				tids[item] = bm
			}
			bm.Add(tid)
		}
	}

	for _, bm := range tids {
		bm.RunOptimize()
	}

	return &VerticalDB{
		Transactions: len(playlists),
		TidLists:     tids,
	}, nil
}

// Items returns every item in lexicographic order.
func (db *VerticalDB) Items() []models.Item {
	items := make([]models.Item, 0, len(db.TidLists))
	for item := range db.TidLists {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return items
}

// Support returns the number of transactions containing item.
func (db *VerticalDB) Support(item models.Item) int {
	bm, ok := db.TidLists[item]
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}
