package model

import (
	"math"
	"sort"

	"github.com/Dicklesworthstone/redactd/internal/entity"
)

// consensusGap is the span slack, in bytes, within which two model findings
// are treated as the same underlying entity.
const consensusGap = 2

// consensusBonus rewards cross-model agreement.
const consensusBonus = 0.1

// ResolveConsensus reconciles the specialized and general model findings for
// one document. Entities whose spans lie within consensusGap of a finding
// from the other model form a group; the group resolves to the specialized
// detector's finding when its category is PII-specific, otherwise to the
// higher-scoring finding, and the winner's score gets the consensus bonus.
// Entities only one model saw pass through unchanged.
func ResolveConsensus(specialized, general []entity.Entity) []entity.Entity {
	if len(specialized) == 0 {
		return general
	}
	if len(general) == 0 {
		return specialized
	}

	out := make([]entity.Entity, 0, len(specialized)+len(general))
	claimed := make([]bool, len(general))

	for _, s := range specialized {
		matched := -1
		for i, g := range general {
			if claimed[i] {
				continue
			}
			if withinGap(s, g) {
				matched = i
				break
			}
		}
		if matched < 0 {
			out = append(out, s)
			continue
		}
		claimed[matched] = true
		g := general[matched]

		winner := g
		if entity.IsPIISpecific(s.Category) || s.Score >= g.Score {
			winner = s
		}
		winner.Score = math.Min(1.0, winner.Score+consensusBonus)
		out = append(out, winner)
	}

	for i, g := range general {
		if !claimed[i] {
			out = append(out, g)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// withinGap reports whether both span edges of a and b are within
// consensusGap bytes of each other.
func withinGap(a, b entity.Entity) bool {
	return abs(a.Start-b.Start) <= consensusGap && abs(a.End-b.End) <= consensusGap
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
