// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package eclat

import (
	"fmt"
	"math"

	"github.com/tomtom215/setlist/internal/models"
)

// maxRuleItemsetSize bounds subset enumeration (2^k - 2 splits per itemset).
const maxRuleItemsetSize = 20

// GenerateRules derives antecedent => consequent rules from frequent itemsets.
//
// Every non-empty proper subset of an itemset of size >= 2 is tried as an
// antecedent, by antecedent size and then in lexicographic combination order.
// Subset supports are looked up among the given itemsets; a missing subset
// returns ErrInternalInconsistency. Rules below minConfidence are dropped.
func GenerateRules(itemsets []models.Itemset, transactions int, minConfidence float64) ([]models.Rule, error) {
	if transactions <= 0 {
		return nil, fmt.Errorf("%w: no transactions", ErrInvalidDataset)
	}
	if math.IsNaN(minConfidence) || minConfidence < 0 || minConfidence > 1 {
		return nil, fmt.Errorf("%w: min confidence %v must be in [0, 1]", ErrInvalidParameter, minConfidence)
	}

	counts := make(map[string]int, len(itemsets))
	for _, s := range itemsets {
		counts[s.Key()] = s.Count
	}

	var rules []models.Rule
	for _, s := range itemsets {
		k := s.Size()
		if k < 2 {
			continue
		}
		if k > maxRuleItemsetSize {
			return nil, fmt.Errorf("%w: itemset of size %d exceeds %d", ErrInvalidParameter, k, maxRuleItemsetSize)
		}

		for r := 1; r < k; r++ {
			err := forEachCombination(k, r, func(idx []int) error {
				ante, cons := split(s.Items, idx)

				anteCount, ok := counts[models.ItemsKey(ante)]
				if !ok || anteCount <= 0 {
					return fmt.Errorf("%w: no support for antecedent %v of itemset %v", ErrInternalInconsistency, ante, s.Items)
				}
				consCount, ok := counts[models.ItemsKey(cons)]
				if !ok || consCount <= 0 {
					return fmt.Errorf("%w: no support for consequent %v of itemset %v", ErrInternalInconsistency, cons, s.Items)
				}

				confidence := float64(s.Count) / float64(anteCount)
				if confidence < minConfidence {
					return nil
				}
				lift := confidence / (float64(consCount) / float64(transactions))

				rules = append(rules, models.Rule{
					Antecedent:   ante,
					Consequent:   cons,
					SupportCount: s.Count,
					Support:      s.Support,
					Confidence:   confidence,
					Lift:         lift,
				})
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return rules, nil
}

// split partitions sorted items into the positions in idx and the rest.
// Both halves stay sorted.
func split(items []models.Item, idx []int) (in, out []models.Item) {
	in = make([]models.Item, 0, len(idx))
	out = make([]models.Item, 0, len(items)-len(idx))
	j := 0
	for i, item := range items {
		if j < len(idx) && idx[j] == i {
			in = append(in, item)
			j++
			continue
		}
		out = append(out, item)
	}
	return in, out
}

// forEachCombination calls fn with every r-subset of [0, n) in lexicographic
// order. The slice passed to fn is reused between calls.
func forEachCombination(n, r int, fn func(idx []int) error) error {
	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	for {
		if err := fn(idx); err != nil {
			return err
		}
		i := r - 1
		for i >= 0 && idx[i] == n-r+i {
			i--
		}
		if i < 0 {
			return nil
		}
		idx[i]++
		for j := i + 1; j < r; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
