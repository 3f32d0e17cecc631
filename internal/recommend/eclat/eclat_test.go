// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package eclat

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/tomtom215/setlist/internal/models"
)

// examplePlaylists is the five-playlist A/B/C fixture:
// {A,B,C}, {A,B}, {A,C}, {B,C}, {A,B,C}.
func examplePlaylists() []models.Playlist {
	return []models.Playlist{
		{ID: "0", Items: []models.Item{"A", "B", "C"}},
		{ID: "1", Items: []models.Item{"A", "B"}},
		{ID: "2", Items: []models.Item{"A", "C"}},
		{ID: "3", Items: []models.Item{"B", "C"}},
		{ID: "4", Items: []models.Item{"A", "B", "C"}},
	}
}

// randomPlaylists builds a reproducible dataset with a skewed item distribution.
func randomPlaylists(seed int64, playlists, items, maxLen int) []models.Playlist {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // test fixture
	out := make([]models.Playlist, playlists)
	for i := range out {
		n := 1 + rng.Intn(maxLen)
		p := models.Playlist{ID: fmt.Sprintf("p%d", i)}
		for j := 0; j < n; j++ {
			// Squaring biases toward low ids so some itemsets are frequent.
			f := rng.Float64()
			id := int(f * f * float64(items))
			p.Items = append(p.Items, models.NewItem(fmt.Sprintf("song%02d", id), "artist"))
		}
		out[i] = p
	}
	return out
}

func mustMine(t *testing.T, playlists []models.Playlist, cfg MinerConfig) ([]models.Itemset, *VerticalDB) {
	t.Helper()
	db, err := BuildVerticalDB(playlists)
	if err != nil {
		t.Fatalf("BuildVerticalDB() error = %v", err)
	}
	m, err := NewMiner(cfg)
	if err != nil {
		t.Fatalf("NewMiner() error = %v", err)
	}
	itemsets, err := m.Mine(db)
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}
	return itemsets, db
}

func TestBuildVerticalDB(t *testing.T) {
	t.Parallel()

	db, err := BuildVerticalDB(examplePlaylists())
	if err != nil {
		t.Fatalf("BuildVerticalDB() error = %v", err)
	}
	if db.Transactions != 5 {
		t.Errorf("Transactions = %d, want 5", db.Transactions)
	}

	want := map[models.Item][]uint32{
		"A": {0, 1, 2, 4},
		"B": {0, 1, 3, 4},
		"C": {0, 2, 3, 4},
	}
	for item, tids := range want {
		bm, ok := db.TidLists[item]
		if !ok {
			t.Fatalf("missing tid-list for %q", item)
		}
		if got := bm.ToArray(); !reflect.DeepEqual(got, tids) {
			t.Errorf("TidLists[%q] = %v, want %v", item, got, tids)
		}
	}
	if got := db.Items(); !reflect.DeepEqual(got, []models.Item{"A", "B", "C"}) {
		t.Errorf("Items() = %v", got)
	}
	if got := db.Support("Z"); got != 0 {
		t.Errorf("Support(unknown) = %d, want 0", got)
	}
}

func TestBuildVerticalDBDuplicateItems(t *testing.T) {
	t.Parallel()

	db, err := BuildVerticalDB([]models.Playlist{{ID: "x", Items: []models.Item{"A", "A", "B"}}})
	if err != nil {
		t.Fatalf("BuildVerticalDB() error = %v", err)
	}
	if got := db.Support("A"); got != 1 {
		t.Errorf("Support(A) = %d, want 1 (set semantics)", got)
	}
}

func TestBuildVerticalDBRejectsEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		playlists []models.Playlist
	}{
		{"no playlists", nil},
		{"empty playlist", []models.Playlist{{ID: "1", Items: []models.Item{"A"}}, {ID: "2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildVerticalDB(tt.playlists)
			if !errors.Is(err, ErrInvalidDataset) {
				t.Errorf("BuildVerticalDB() error = %v, want ErrInvalidDataset", err)
			}
		})
	}
}

func TestMinSupportCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ratio float64
		n     int
		want  int
	}{
		{0.4, 5, 2},
		{0.05, 100, 5},
		{0.3, 10, 3},
		{0.25, 10, 3},
		{0.01, 10, 1},
		{1.0, 7, 7},
		{0.1, 3, 1},
	}

	for _, tt := range tests {
		if got := MinSupportCount(tt.ratio, tt.n); got != tt.want {
			t.Errorf("MinSupportCount(%v, %d) = %d, want %d", tt.ratio, tt.n, got, tt.want)
		}
	}
}

func TestMinerConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     MinerConfig
		wantErr bool
	}{
		{"valid", MinerConfig{MinSupport: 0.05, MaxItemsetSize: 5}, false},
		{"defaults size", MinerConfig{MinSupport: 1}, false},
		{"zero support", MinerConfig{MinSupport: 0}, true},
		{"support above one", MinerConfig{MinSupport: 1.5}, true},
		{"negative size", MinerConfig{MinSupport: 0.1, MaxItemsetSize: -1}, true},
		{"negative workers", MinerConfig{MinSupport: 0.1, Workers: -2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("Validate() error = %v, want ErrInvalidParameter", err)
			}
		})
	}

	m, err := NewMiner(MinerConfig{MinSupport: 0.5})
	if err != nil {
		t.Fatalf("NewMiner() error = %v", err)
	}
	if m.Config().MaxItemsetSize != DefaultMaxItemsetSize {
		t.Errorf("MaxItemsetSize = %d, want %d", m.Config().MaxItemsetSize, DefaultMaxItemsetSize)
	}
	if m.Config().Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", m.Config().Workers)
	}
}

func TestMineExampleScenario(t *testing.T) {
	t.Parallel()

	itemsets, _ := mustMine(t, examplePlaylists(), MinerConfig{MinSupport: 0.4})

	want := []struct {
		items []models.Item
		count int
	}{
		{[]models.Item{"A"}, 4},
		{[]models.Item{"B"}, 4},
		{[]models.Item{"C"}, 4},
		{[]models.Item{"A", "B"}, 3},
		{[]models.Item{"A", "B", "C"}, 2},
		{[]models.Item{"A", "C"}, 3},
		{[]models.Item{"B", "C"}, 3},
	}

	if len(itemsets) != len(want) {
		t.Fatalf("Mine() returned %d itemsets, want %d: %+v", len(itemsets), len(want), itemsets)
	}
	for i, w := range want {
		got := itemsets[i]
		if !reflect.DeepEqual(got.Items, w.items) || got.Count != w.count {
			t.Errorf("itemset[%d] = %v:%d, want %v:%d", i, got.Items, got.Count, w.items, w.count)
		}
		if wantSupport := float64(w.count) / 5; got.Support != wantSupport {
			t.Errorf("itemset[%d] support = %v, want %v", i, got.Support, wantSupport)
		}
	}
}

func TestMineMaxItemsetSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		maxSize int
		want    int
	}{
		{1, 3},
		{2, 6},
		{3, 7},
	}

	for _, tt := range tests {
		itemsets, _ := mustMine(t, examplePlaylists(), MinerConfig{MinSupport: 0.4, MaxItemsetSize: tt.maxSize})
		if len(itemsets) != tt.want {
			t.Errorf("maxSize %d: got %d itemsets, want %d", tt.maxSize, len(itemsets), tt.want)
		}
		for _, s := range itemsets {
			if s.Size() > tt.maxSize {
				t.Errorf("maxSize %d: emitted itemset %v", tt.maxSize, s.Items)
			}
		}
	}
}

func TestMineNoFrequentItems(t *testing.T) {
	t.Parallel()

	playlists := []models.Playlist{
		{ID: "1", Items: []models.Item{"A"}},
		{ID: "2", Items: []models.Item{"B"}},
		{ID: "3", Items: []models.Item{"C"}},
	}
	itemsets, _ := mustMine(t, playlists, MinerConfig{MinSupport: 0.9})
	if len(itemsets) != 0 {
		t.Errorf("Mine() = %v, want empty", itemsets)
	}
}

func TestMineNilDB(t *testing.T) {
	t.Parallel()

	m, err := NewMiner(MinerConfig{MinSupport: 0.5})
	if err != nil {
		t.Fatalf("NewMiner() error = %v", err)
	}
	if _, err := m.Mine(nil); !errors.Is(err, ErrInvalidDataset) {
		t.Errorf("Mine(nil) error = %v, want ErrInvalidDataset", err)
	}
}

func TestMineDeterministicAcrossWorkers(t *testing.T) {
	t.Parallel()

	playlists := randomPlaylists(42, 300, 30, 12)

	base, _ := mustMine(t, playlists, MinerConfig{MinSupport: 0.05, Workers: 1})
	if len(base) == 0 {
		t.Fatal("fixture produced no itemsets")
	}

	for _, workers := range []int{1, 2, 8} {
		got, _ := mustMine(t, playlists, MinerConfig{MinSupport: 0.05, Workers: workers})
		if !reflect.DeepEqual(got, base) {
			t.Errorf("workers=%d produced a different itemset list", workers)
		}
	}
}

// bruteForceSupport counts transactions containing every item of the set.
func bruteForceSupport(playlists []models.Playlist, items []models.Item) int {
	count := 0
	for _, p := range playlists {
		set := make(map[models.Item]bool, len(p.Items))
		for _, it := range p.Items {
			set[it] = true
		}
		all := true
		for _, it := range items {
			if !set[it] {
				all = false
				break
			}
		}
		if all {
			count++
		}
	}
	return count
}

func TestMineMatchesBruteForce(t *testing.T) {
	t.Parallel()

	playlists := randomPlaylists(7, 60, 8, 5)
	itemsets, db := mustMine(t, playlists, MinerConfig{MinSupport: 0.1, MaxItemsetSize: 8})
	minCount := MinSupportCount(0.1, db.Transactions)

	got := make(map[string]int, len(itemsets))
	for _, s := range itemsets {
		if _, dup := got[s.Key()]; dup {
			t.Errorf("itemset %v emitted twice", s.Items)
		}
		got[s.Key()] = s.Count
		if !sort.SliceIsSorted(s.Items, func(i, j int) bool { return s.Items[i] < s.Items[j] }) {
			t.Errorf("itemset %v is not sorted", s.Items)
		}
	}

	all := db.Items()
	want := 0
	for mask := 1; mask < 1<<len(all); mask++ {
		var items []models.Item
		for i, it := range all {
			if mask&(1<<i) != 0 {
				items = append(items, it)
			}
		}
		support := bruteForceSupport(playlists, items)
		count, emitted := got[models.ItemsKey(items)]
		switch {
		case support >= minCount && !emitted:
			t.Errorf("frequent itemset %v (support %d) not emitted", items, support)
		case support < minCount && emitted:
			t.Errorf("infrequent itemset %v (support %d) emitted", items, support)
		case emitted && count != support:
			t.Errorf("itemset %v count = %d, want %d", items, count, support)
		}
		if support >= minCount {
			want++
		}
	}
	if len(itemsets) != want {
		t.Errorf("Mine() returned %d itemsets, want %d", len(itemsets), want)
	}
}

func TestMineAntiMonotonicity(t *testing.T) {
	t.Parallel()

	itemsets, _ := mustMine(t, randomPlaylists(99, 200, 20, 10), MinerConfig{MinSupport: 0.04})

	counts := make(map[string]int, len(itemsets))
	for _, s := range itemsets {
		counts[s.Key()] = s.Count
	}

	for _, s := range itemsets {
		if s.Size() < 2 {
			continue
		}
		for drop := range s.Items {
			sub := make([]models.Item, 0, s.Size()-1)
			sub = append(sub, s.Items[:drop]...)
			sub = append(sub, s.Items[drop+1:]...)
			subCount, ok := counts[models.ItemsKey(sub)]
			if !ok {
				t.Errorf("itemset %v emitted but subset %v is not frequent", s.Items, sub)
				continue
			}
			if s.Count > subCount {
				t.Errorf("support(%v) = %d > support(%v) = %d", s.Items, s.Count, sub, subCount)
			}
		}
	}
}
