// Package merge resolves the unordered union of normalized entities from all
// (chunk, detector) runs into one ordered, non-overlapping entity set.
//
// Overlaps are resolved to the union of the two spans, keeping the
// higher-confidence side's category and text. Union-of-spans is the
// leak-minimizing choice: when two detectors disagree about where an entity
// ends, redacting the wider span never exposes PII, while picking one span
// verbatim can.
package merge

import (
	"math"
	"sort"

	"github.com/Dicklesworthstone/redactd/internal/entity"
)

// tieBonus rewards exact-score consensus between overlapping findings.
const tieBonus = 0.05

// Merge returns a sorted, non-overlapping entity set covering the input.
// The output satisfies out[i].End <= out[i+1].Start for all i, which the
// tokenizer depends on. The input slice is not modified.
func Merge(src string, ents []entity.Entity) []entity.Entity {
	if len(ents) <= 1 {
		return append([]entity.Entity(nil), ents...)
	}

	sorted := append([]entity.Entity(nil), ents...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		// Larger span first so the sweep sees the wide entity before the
		// narrow one it contains.
		return sorted[i].End > sorted[j].End
	})

	out := make([]entity.Entity, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start >= cur.End {
			out = append(out, cur)
			cur = next
			continue
		}
		cur = combine(src, cur, next)
	}
	out = append(out, cur)
	return out
}

// combine folds next into cur: union span, higher-confidence side's
// category, a tie bonus when the sides agree exactly on score.
func combine(src string, cur, next entity.Entity) entity.Entity {
	start := cur.Start
	if next.Start < start {
		start = next.Start
	}
	end := cur.End
	if next.End > end {
		end = next.End
	}

	winner := cur
	switch {
	case next.Score > cur.Score:
		winner = next
	case next.Score == cur.Score:
		winner.Score = math.Min(1.0, winner.Score+tieBonus)
	}

	winner.Start = start
	winner.End = end
	if end <= len(src) {
		winner.Text = src[start:end]
	}
	return winner
}

// Validate reports whether ents is sorted by start with no overlaps and all
// spans valid against a source of length n. Used by tests and debug paths.
func Validate(ents []entity.Entity, n int) bool {
	for i, e := range ents {
		if !e.Valid(n) {
			return false
		}
		if i > 0 && ents[i-1].End > e.Start {
			return false
		}
	}
	return true
}
