// Package token converts a final entity set into reversible placeholder
// tokens and splices them into the text. The placeholder wire format is
// <PII_CATEGORY_N>: uppercase category (letters and underscores), then a
// 1-based decimal sequence number without leading zeros, counted per
// category in left-to-right document order. The format is stable across a
// redact/restore round trip and safe to embed unescaped in plain text.
package token

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/Dicklesworthstone/redactd/internal/entity"
)

// Token records one placeholder substitution. The caller owns the token
// list; it is the only way to reverse a redaction.
type Token struct {
	// Category is the canonical category of the redacted span.
	Category entity.Category `json:"category"`
	// Seq is the 1-based per-category sequence number in document order.
	Seq int `json:"seq"`
	// Placeholder is the string spliced into the redacted text.
	Placeholder string `json:"placeholder"`
	// Original is the substring the placeholder replaced.
	Original string `json:"original"`
	// Start is the inclusive byte offset of Original in the source text.
	Start int `json:"start"`
	// End is the exclusive byte offset of Original in the source text.
	End int `json:"end"`
}

// Result is the output of a redaction pass.
type Result struct {
	// RedactedText is the source text with placeholders spliced in.
	RedactedText string `json:"redacted_text"`
	// Tokens lists substitutions in document order.
	Tokens []Token `json:"tokens"`
}

// placeholderRe is the strict placeholder shape: category letters and
// underscores, then a sequence number with no leading zeros.
var placeholderRe = regexp.MustCompile(`^<PII_[A-Z][A-Z_]*_[1-9][0-9]*>$`)

// Placeholder renders the wire form for a category and sequence number.
func Placeholder(c entity.Category, seq int) string {
	return fmt.Sprintf("<PII_%s_%d>", c, seq)
}

// ValidPlaceholder reports whether s is a well-formed placeholder. The
// restorer refuses to substitute anything that fails this check.
func ValidPlaceholder(s string) bool {
	return placeholderRe.MatchString(s)
}

// Redact assigns placeholders to a sorted, non-overlapping entity list and
// splices them into text. Placeholder uniqueness follows from the single
// monotonic numbering pass; it is an invariant, not a runtime check.
func Redact(text string, ents []entity.Entity) Result {
	if len(ents) == 0 {
		return Result{RedactedText: text}
	}

	counters := make(map[entity.Category]int)
	tokens := make([]Token, 0, len(ents))
	for _, e := range ents {
		counters[e.Category]++
		tokens = append(tokens, Token{
			Category:    e.Category,
			Seq:         counters[e.Category],
			Placeholder: Placeholder(e.Category, counters[e.Category]),
			Original:    text[e.Start:e.End],
			Start:       e.Start,
			End:         e.End,
		})
	}

	return Result{
		RedactedText: Splice(text, tokens),
		Tokens:       tokens,
	}
}

// Splice replaces each token's span with its placeholder. Substitutions run
// in descending start order so earlier spans never shift under later edits;
// no offset bookkeeping is needed. Shared by initial tokenization and the
// consistency linker's rebuild.
func Splice(text string, tokens []Token) string {
	if len(tokens) == 0 {
		return text
	}
	sorted := append([]Token(nil), tokens...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	out := text
	for _, t := range sorted {
		if t.Start < 0 || t.End > len(out) || t.Start >= t.End {
			continue
		}
		out = out[:t.Start] + t.Placeholder + out[t.End:]
	}
	return out
}

// Map derives the placeholder → original lookup from a token list.
func Map(tokens []Token) map[string]string {
	m := make(map[string]string, len(tokens))
	for _, t := range tokens {
		m[t.Placeholder] = t.Original
	}
	return m
}
