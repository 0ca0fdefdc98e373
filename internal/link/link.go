// Package link forces every surface occurrence of an already-tokenized name
// to reuse its placeholder. Without it, a document mentioning "John Smith"
// once in full and "Smith" five times afterwards would leak the five bare
// surnames.
package link

import (
	"sort"
	"strings"

	"github.com/Dicklesworthstone/redactd/internal/entity"
	"github.com/Dicklesworthstone/redactd/internal/token"
	"github.com/Dicklesworthstone/redactd/internal/wordscan"
)

// minFragmentLen skips single-character name fragments ("J." initials),
// which match far too much text to link safely.
const minFragmentLen = 2

// Link re-scans src for uncovered occurrences of person-name fragments and
// extends the token set so they redact to the placeholders already assigned.
// The returned result has its redacted text rebuilt from src and the final
// token set; the placeholder → original mapping remains bijective.
func Link(src string, res token.Result) token.Result {
	fragments, owners := fragmentIndex(res.Tokens)
	if len(fragments) == 0 {
		return res
	}

	scanner, err := wordscan.New(fragments)
	if err != nil {
		// A fragment list that fails to compile just means no linking.
		return res
	}

	tokens := append([]token.Token(nil), res.Tokens...)
	for _, m := range scanner.Scan(src) {
		if covered(tokens, m.Start, m.End) {
			continue
		}
		owner := owners[m.Pattern]
		tokens = append(tokens, token.Token{
			Category:    owner.Category,
			Seq:         owner.Seq,
			Placeholder: owner.Placeholder,
			Original:    m.Text,
			Start:       m.Start,
			End:         m.End,
		})
	}

	tokens = dedupe(tokens)
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Start < tokens[j].Start })

	return token.Result{
		RedactedText: token.Splice(src, tokens),
		Tokens:       tokens,
	}
}

// fragmentIndex splits every person token's original into lowercased word
// fragments. Each fragment remembers the first token that contained it, so
// repeated surnames consistently reuse the earliest placeholder.
func fragmentIndex(tokens []token.Token) ([]string, []token.Token) {
	var fragments []string
	var owners []token.Token
	seen := make(map[string]bool)

	for _, t := range tokens {
		if t.Category != entity.CategoryPerson {
			continue
		}
		for _, frag := range strings.Fields(t.Original) {
			frag = strings.Trim(frag, ".,;:'\"")
			folded := strings.ToLower(frag)
			if len(folded) < minFragmentLen || seen[folded] {
				continue
			}
			seen[folded] = true
			fragments = append(fragments, folded)
			owners = append(owners, t)
		}
	}
	return fragments, owners
}

// covered reports whether [start,end) intersects any existing token span.
func covered(tokens []token.Token, start, end int) bool {
	for _, t := range tokens {
		if t.Start < end && t.End > start {
			return true
		}
	}
	return false
}

// dedupe restores the bijective placeholder → original mapping: when tokens
// share a placeholder but disagree on the original substring, the first
// keeps the placeholder and each conflicting original is reassigned a fresh
// per-category sequence number.
func dedupe(tokens []token.Token) []token.Token {
	maxSeq := make(map[entity.Category]int)
	for _, t := range tokens {
		if t.Seq > maxSeq[t.Category] {
			maxSeq[t.Category] = t.Seq
		}
	}

	type assignment struct {
		placeholder string
		seq         int
	}
	// placeholder -> original of the first holder
	firstOriginal := make(map[string]string)
	// (category, original) -> first placeholder holding that exact text,
	// reused instead of minting a fresh counter when a conflict arises.
	byOriginal := make(map[[2]string]assignment)
	// (placeholder, conflicting original) -> fresh assignment, so repeated
	// occurrences of the same conflicting name share one token.
	reassigned := make(map[[2]string]assignment)

	out := make([]token.Token, 0, len(tokens))
	for _, t := range tokens {
		origKey := [2]string{string(t.Category), t.Original}
		orig, ok := firstOriginal[t.Placeholder]
		if !ok {
			firstOriginal[t.Placeholder] = t.Original
			if _, dup := byOriginal[origKey]; !dup {
				byOriginal[origKey] = assignment{t.Placeholder, t.Seq}
			}
			out = append(out, t)
			continue
		}
		if orig == t.Original {
			out = append(out, t)
			continue
		}

		key := [2]string{t.Placeholder, t.Original}
		a, ok := reassigned[key]
		if !ok {
			if prior, dup := byOriginal[origKey]; dup {
				a = prior
			} else {
				maxSeq[t.Category]++
				a = assignment{
					placeholder: token.Placeholder(t.Category, maxSeq[t.Category]),
					seq:         maxSeq[t.Category],
				}
				firstOriginal[a.placeholder] = t.Original
				byOriginal[origKey] = a
			}
			reassigned[key] = a
		}
		t.Placeholder = a.placeholder
		t.Seq = a.seq
		out = append(out, t)
	}
	return out
}
