package model

import (
	"context"
	"fmt"
	"sort"

	"github.com/knights-analytics/hugot/pipelines"

	"github.com/Dicklesworthstone/redactd/internal/entity"
)

// Detector runs one token-classification pipeline behind the shared loader.
// It implements detect.Detector.
type Detector struct {
	name   string
	loader *Loader
	// pick selects this detector's pipeline from the loaded handle.
	pick func(*handle) *pipelines.TokenClassificationPipeline
}

// NewSpecialized returns the PII-specific model detector.
func NewSpecialized(l *Loader) *Detector {
	return &Detector{
		name:   SpecializedName,
		loader: l,
		pick:   func(h *handle) *pipelines.TokenClassificationPipeline { return h.specialized },
	}
}

// NewGeneral returns the general NER model detector.
func NewGeneral(l *Loader) *Detector {
	return &Detector{
		name:   GeneralName,
		loader: l,
		pick:   func(h *handle) *pipelines.TokenClassificationPipeline { return h.general },
	}
}

// Name implements detect.Detector.
func (d *Detector) Name() string { return d.name }

// Detect implements detect.Detector. Sub-word predictions from the pipeline
// are coalesced into whole-entity spans before returning.
func (d *Detector) Detect(ctx context.Context, text string) ([]entity.Detection, error) {
	if text == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, err := d.loader.load()
	if err != nil {
		return nil, err
	}
	pipeline := d.pick(h)
	if pipeline == nil {
		return nil, &InitError{Model: d.name, Err: fmt.Errorf("pipeline not loaded")}
	}

	out, err := pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("%s: running pipeline: %w", d.name, err)
	}
	if len(out.Entities) == 0 {
		return nil, nil
	}

	frags := make([]fragment, 0, len(out.Entities[0]))
	for _, e := range out.Entities[0] {
		start, end := int(e.Start), int(e.End)
		if start >= end || end > len(text) {
			continue
		}
		label := entity.CleanLabel(e.Entity)
		if label == "" || label == "O" {
			continue
		}
		frags = append(frags, fragment{
			label: label,
			start: start,
			end:   end,
			score: float64(e.Score),
		})
	}
	return coalesce(text, frags), nil
}

// fragment is one sub-word prediction with its begin/continuation prefix
// already stripped.
type fragment struct {
	label string
	start int
	end   int
	score float64
}

// coalesceGap is the largest byte gap between adjacent same-label fragments
// that still counts as one entity (a single space between sub-words).
const coalesceGap = 1

// coalesce merges adjacent same-label sub-word fragments into whole-entity
// detections. The merged span concatenates fragments and any gap text
// between them; the entity score is the maximum sub-token score.
func coalesce(text string, frags []fragment) []entity.Detection {
	if len(frags) == 0 {
		return nil
	}
	sort.Slice(frags, func(i, j int) bool {
		if frags[i].start != frags[j].start {
			return frags[i].start < frags[j].start
		}
		return frags[i].end > frags[j].end
	})

	var out []entity.Detection
	cur := frags[0]
	flush := func() {
		out = append(out, entity.Detection{
			Label: cur.label,
			Text:  text[cur.start:cur.end],
			Start: cur.start,
			End:   cur.end,
			Score: cur.score,
		})
	}
	for _, f := range frags[1:] {
		if f.label == cur.label && f.start <= cur.end+coalesceGap {
			if f.end > cur.end {
				cur.end = f.end
			}
			if f.score > cur.score {
				cur.score = f.score
			}
			continue
		}
		flush()
		cur = f
	}
	flush()
	return out
}
