// Package filter applies the confidence threshold and the user's custom
// word lists to a merged entity set.
//
// Precedence: always-ignore beats always-redact beats the model. An ignored
// word's occurrences suppress any candidate entity overlapping them,
// including custom-synthesized ones; always-redact occurrences become
// CUSTOM entities at score 1.0, which are exempt from the threshold.
package filter

import (
	"fmt"

	"github.com/Dicklesworthstone/redactd/internal/entity"
	"github.com/Dicklesworthstone/redactd/internal/merge"
	"github.com/Dicklesworthstone/redactd/internal/wordscan"
)

// DefaultThreshold is the default minimum confidence for model entities.
const DefaultThreshold = 0.5

// customScore is the confidence for user-specified always-redact words.
const customScore = 1.0

// Filter holds the compiled word lists and threshold for one redact call.
type Filter struct {
	threshold float64
	redact    *wordscan.Scanner
	ignore    *wordscan.Scanner
}

// New compiles a Filter. Threshold must be in [0,1]; word lists may be nil.
func New(threshold float64, alwaysRedact, alwaysIgnore []string) (*Filter, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("confidence threshold %v out of range [0,1]", threshold)
	}
	redact, err := wordscan.New(alwaysRedact)
	if err != nil {
		return nil, fmt.Errorf("compiling always-redact list: %w", err)
	}
	ignore, err := wordscan.New(alwaysIgnore)
	if err != nil {
		return nil, fmt.Errorf("compiling always-ignore list: %w", err)
	}
	return &Filter{threshold: threshold, redact: redact, ignore: ignore}, nil
}

// Apply filters the merged entity set against src and returns a sorted,
// non-overlapping result. Custom entities synthesized from always-redact
// words may overlap model entities, so the merge rule runs again on the
// filtered set.
func (f *Filter) Apply(src string, ents []entity.Entity) []entity.Entity {
	ignored := f.ignore.Scan(src)

	kept := make([]entity.Entity, 0, len(ents))
	for _, e := range ents {
		if e.Score < f.threshold && e.Category != entity.CategoryCustom {
			continue
		}
		if overlapsAny(e, ignored) {
			continue
		}
		kept = append(kept, e)
	}

	for _, m := range f.redact.Scan(src) {
		custom := entity.Entity{
			Category: entity.CategoryCustom,
			Text:     m.Text,
			Start:    m.Start,
			End:      m.End,
			Score:    customScore,
			Detector: "custom",
		}
		if overlapsAny(custom, ignored) {
			continue
		}
		kept = append(kept, custom)
	}

	return merge.Merge(src, kept)
}

func overlapsAny(e entity.Entity, ms []wordscan.Match) bool {
	for _, m := range ms {
		if e.Overlaps(m.Start, m.End) {
			return true
		}
	}
	return false
}
