// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package models

import (
	"strings"
)

// itemKeySep joins items into a canonical itemset key. It cannot appear in
// CSV-sourced track or artist names.
const itemKeySep = "\x1f"

// Item identifies a song as "track,artist". Equality is exact and case-sensitive.
type Item string

// NewItem joins a track and artist name into an Item.
func NewItem(track, artist string) Item {
	return Item(track + "," + artist)
}

// SongName returns the trimmed track component (text before the first comma).
func (i Item) SongName() string {
	s := string(i)
	if idx := strings.IndexByte(s, ','); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// Playlist is one transaction: the items that appear together in a playlist.
type Playlist struct {
	ID    string `json:"id"`
	Items []Item `json:"items"`
}

// Itemset is a set of co-occurring items with its support.
// Items are sorted ascending.
type Itemset struct {
	Items   []Item  `json:"items"`
	Count   int     `json:"count"`
	Support float64 `json:"support"`
}

// Key returns the canonical lookup key of the itemset.
func (s Itemset) Key() string {
	return ItemsKey(s.Items)
}

// Size returns the number of items in the itemset.
func (s Itemset) Size() int {
	return len(s.Items)
}

// ItemsKey returns the canonical key for a sorted slice of items.
func ItemsKey(items []Item) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return string(items[0])
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString(itemKeySep)
		}
		b.WriteString(string(it))
	}
	return b.String()
}

// Rule is a directional association rule antecedent => consequent.
// Support and SupportCount describe the union of both sides.
type Rule struct {
	Antecedent   []Item  `json:"antecedent"`
	Consequent   []Item  `json:"consequent"`
	SupportCount int     `json:"support_count"`
	Support      float64 `json:"support"`
	Confidence   float64 `json:"confidence"`
	Lift         float64 `json:"lift"`
}

// Score is the ranking weight the recommender assigns to the rule's consequents.
func (r Rule) Score() float64 {
	return r.Confidence * r.Lift
}

// MiningParams are the thresholds a model was trained with.
type MiningParams struct {
	MinSupport     float64 `json:"min_support"`
	MinConfidence  float64 `json:"min_confidence"`
	MaxItemsetSize int     `json:"max_itemset_size"`
}

// DatasetStats summarizes an ingested dataset.
type DatasetStats struct {
	TotalRows      int `json:"total_transactions"`
	TotalPlaylists int `json:"total_playlists"`
	UniqueItems    int `json:"unique_items"`
}

// DatasetInfo records where a model's training data came from.
type DatasetInfo struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Model is the immutable result of one training run.
type Model struct {
	Itemsets        []Itemset    `json:"frequent_itemsets"`
	Rules           []Rule       `json:"rules"`
	NumRules        int          `json:"num_rules"`
	NumItemsets     int          `json:"num_itemsets"`
	NumTransactions int          `json:"num_transactions"`
	Params          MiningParams `json:"params"`
	Dataset         DatasetInfo  `json:"dataset"`
}

// NewModel assembles a Model and fills in its counts.
func NewModel(itemsets []Itemset, rules []Rule, transactions int, params MiningParams, ds DatasetInfo) *Model {
	return &Model{
		Itemsets:        itemsets,
		Rules:           rules,
		NumRules:        len(rules),
		NumItemsets:     len(itemsets),
		NumTransactions: transactions,
		Params:          params,
		Dataset:         ds,
	}
}
