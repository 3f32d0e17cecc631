// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package eclat

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/setlist/internal/models"
)

// DefaultMaxItemsetSize caps itemset growth when a run does not set one.
const DefaultMaxItemsetSize = 5

// supportEpsilon absorbs float error in ratio*count before taking the ceiling,
// so 0.05*100 yields 5 and not 6.
const supportEpsilon = 1e-9

// MinerConfig holds the thresholds for one mining run.
type MinerConfig struct {
	// MinSupport is the minimum fraction of transactions an itemset must occur in.
	// Must be in (0, 1].
	MinSupport float64

	// MaxItemsetSize stops extension once an itemset reaches this size.
	// Default: 5
	MaxItemsetSize int

	// Workers bounds the number of seed branches mined concurrently.
	// Default: GOMAXPROCS
	Workers int
}

// Validate checks the configuration.
func (c MinerConfig) Validate() error {
	if math.IsNaN(c.MinSupport) || c.MinSupport <= 0 || c.MinSupport > 1 {
		return fmt.Errorf("%w: min support %v must be in (0, 1]", ErrInvalidParameter, c.MinSupport)
	}
	if c.MaxItemsetSize < 0 {
		return fmt.Errorf("%w: max itemset size %d must be positive", ErrInvalidParameter, c.MaxItemsetSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalidParameter, c.Workers)
	}
	return nil
}

// Miner enumerates frequent itemsets with Eclat.
type Miner struct {
	cfg MinerConfig
}

// NewMiner validates cfg and applies defaults.
func NewMiner(cfg MinerConfig) (*Miner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxItemsetSize == 0 {
		cfg.MaxItemsetSize = DefaultMaxItemsetSize
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Miner{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (m *Miner) Config() MinerConfig {
	return m.cfg
}

// MinSupportCount converts a support ratio into an absolute transaction count.
// The result is never below 1.
func MinSupportCount(ratio float64, transactions int) int {
	c := int(math.Ceil(ratio*float64(transactions) - supportEpsilon))
	if c < 1 {
		return 1
	}
	return c
}

// candidate is an item that may extend a prefix, with the tid-list of
// prefix+item (or of the item alone at seed level).
type candidate struct {
	item models.Item
	tids *roaring.Bitmap
}

// node is a pending itemset on the work stack. siblings are the frequent
// extensions of the parent prefix that sort after the node's last item.
type node struct {
	items    []models.Item
	tids     *roaring.Bitmap
	siblings []candidate
}

// Mine returns every itemset whose support count reaches the minimum.
// Output starts with the frequent single items in lexicographic order,
// followed by each seed's branch in depth-first pre-order.
func (m *Miner) Mine(db *VerticalDB) ([]models.Itemset, error) {
	if db == nil || db.Transactions <= 0 {
		return nil, fmt.Errorf("%w: no transactions", ErrInvalidDataset)
	}

	n := db.Transactions
	minCount := MinSupportCount(m.cfg.MinSupport, n)

	seeds := make([]candidate, 0, len(db.TidLists))
	for item, bm := range db.TidLists {
		if int(bm.GetCardinality()) >= minCount {
			seeds = append(seeds, candidate{item: item, tids: bm})
		}
	}
	sort.Slice(seeds, func(i, j int) bool { return seeds[i].item < seeds[j].item })

	result := make([]models.Itemset, 0, len(seeds))
	for _, s := range seeds {
		result = append(result, newItemset([]models.Item{s.item}, s.tids, n))
	}
	if m.cfg.MaxItemsetSize < 2 || len(seeds) < 2 {
		return result, nil
	}

	// Branches share only read-only tid-lists, so they can run in parallel.
	branches := make([][]models.Itemset, len(seeds))
	var g errgroup.Group
	g.SetLimit(m.cfg.Workers)
	for i := range seeds {
		g.Go(func() error {
			branches[i] = m.mineBranch(seeds, i, minCount, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, b := range branches {
		result = append(result, b...)
	}
	return result, nil
}

// mineBranch enumerates every frequent itemset of size >= 2 whose smallest
// item is seeds[i].
func (m *Miner) mineBranch(seeds []candidate, i, minCount, n int) []models.Itemset {
	var out []models.Itemset

	stack := []node{{
		items:    []models.Item{seeds[i].item},
		tids:     seeds[i].tids,
		siblings: seeds[i+1:],
	}}

	for len(stack) > 0 {
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(nd.items) > 1 {
			out = append(out, newItemset(nd.items, nd.tids, n))
		}
		if len(nd.items) >= m.cfg.MaxItemsetSize {
			continue
		}

		var children []candidate
		for _, c := range nd.siblings {
			inter := roaring.And(nd.tids, c.tids)
			if int(inter.GetCardinality()) < minCount {
				continue
			}
			children = append(children, candidate{item: c.item, tids: inter})
		}

		// Push in reverse so the smallest extension is popped first.
		for j := len(children) - 1; j >= 0; j-- {
			items := make([]models.Item, len(nd.items)+1)
			copy(items, nd.items)
			items[len(nd.items)] = children[j].item
			stack = append(stack, node{
				items:    items,
				tids:     children[j].tids,
				siblings: children[j+1:],
			})
		}
	}

	return out
}

func newItemset(items []models.Item, tids *roaring.Bitmap, n int) models.Itemset {
	count := int(tids.GetCardinality())
	return models.Itemset{
		Items:   items,
		Count:   count,
		Support: float64(count) / float64(n),
	}
}
