// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package recommend

import (
	"sort"
	"time"

	"github.com/tomtom215/setlist/internal/models"
)

// snapshot is an immutable, pre-compiled view of one model.
type snapshot struct {
	model    *models.Model
	info     models.ModelInfo
	loadedAt time.Time

	rules []compiledRule

	// index maps the smallest normalized antecedent name of each rule to the
	// rule's position in rules, so every matching rule is visited exactly once.
	index map[string][]int
}

// compiledRule is a rule reduced to normalized song names.
type compiledRule struct {
	antecedent  []string // sorted, deduplicated
	consequents []candidate
	score       float64
}

// candidate is a recommendable song.
type candidate struct {
	norm    string
	display string
}

// scored is the best score seen for one song.
type scored struct {
	display string
	score   float64
}

func compile(model *models.Model, info models.ModelInfo) *snapshot {
	s := &snapshot{
		model:    model,
		info:     info,
		loadedAt: time.Now(),
		rules:    make([]compiledRule, 0, len(model.Rules)),
		index:    make(map[string][]int),
	}

	for _, r := range model.Rules {
		ante, ok := antecedentNames(r.Antecedent)
		if !ok {
			continue
		}
		cons := consequentCandidates(r.Consequent)
		if len(cons) == 0 {
			continue
		}

		s.index[ante[0]] = append(s.index[ante[0]], len(s.rules))
		s.rules = append(s.rules, compiledRule{
			antecedent:  ante,
			consequents: cons,
			score:       r.Score(),
		})
	}
	return s
}

// antecedentNames returns the sorted unique normalized song names of items.
// It reports false when a name is empty, since such a rule can never match.
func antecedentNames(items []models.Item) ([]string, bool) {
	if len(items) == 0 {
		return nil, false
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		n := NormalizeSongName(it.SongName())
		if n == "" {
			return nil, false
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out, true
}

// consequentCandidates returns one candidate per normalized song name.
// When two items share a name, the lexicographically smaller display wins.
func consequentCandidates(items []models.Item) []candidate {
	out := make([]candidate, 0, len(items))
	pos := make(map[string]int, len(items))
	for _, it := range items {
		display := it.SongName()
		n := NormalizeSongName(display)
		if n == "" {
			continue
		}
		if i, dup := pos[n]; dup {
			if display < out[i].display {
				out[i].display = display
			}
			continue
		}
		pos[n] = len(out)
		out = append(out, candidate{norm: n, display: display})
	}
	return out
}

func (r *compiledRule) matches(in inputSet) bool {
	for _, a := range r.antecedent {
		if _, ok := in.names[a]; !ok {
			return false
		}
	}
	return true
}

// recommend scores every candidate reachable from in and returns the best n.
func (s *snapshot) recommend(in inputSet, n int) []string {
	best := make(map[string]scored)

	for _, name := range in.sorted {
		for _, idx := range s.index[name] {
			r := &s.rules[idx]
			if !r.matches(in) {
				continue
			}
			for _, c := range r.consequents {
				if _, own := in.names[c.norm]; own {
					continue
				}
				cur, seen := best[c.norm]
				if !seen || r.score > cur.score || (r.score == cur.score && c.display < cur.display) {
					best[c.norm] = scored{display: c.display, score: r.score}
				}
			}
		}
	}

	ranked := make([]scored, 0, len(best))
	for _, sc := range best {
		ranked = append(ranked, sc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].display < ranked[j].display
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]string, len(ranked))
	for i, sc := range ranked {
		out[i] = sc.display
	}
	return out
}

func (s *snapshot) result(songs []string, cached bool) *Result {
	return &Result{
		Songs:     songs,
		Version:   s.info.Version,
		ModelDate: s.info.Timestamp,
		Cached:    cached,
	}
}
