// Package wordscan provides case-insensitive whole-word scanning of a
// document for a fixed set of words or phrases.
//
// Matching runs over a lowercased copy of the text via a single Aho-Corasick
// automaton, with a byte-offset map translating match positions back to the
// original text (lowercasing can change rune byte lengths, so positions in
// the folded text are not positions in the original).
package wordscan

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"
)

// Match is one whole-word occurrence in the original text.
type Match struct {
	// Start is the inclusive byte offset in the original text.
	Start int
	// End is the exclusive byte offset in the original text.
	End int
	// Text is the original substring, preserving its casing.
	Text string
	// Pattern is the index of the matched word in the scanner's word list.
	Pattern int
}

// Scanner matches a fixed word list against documents.
type Scanner struct {
	words []string
	ac    *ahocorasick.Automaton
}

// New builds a Scanner for the given words. Empty and duplicate words (after
// case folding) are dropped. A nil scanner-with-no-words is valid and
// matches nothing.
func New(words []string) (*Scanner, error) {
	s := &Scanner{}
	seen := make(map[string]bool, len(words))
	var patterns []string
	for _, w := range words {
		folded := strings.ToLower(strings.TrimSpace(w))
		if folded == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		s.words = append(s.words, w)
		patterns = append(patterns, folded)
	}
	if len(patterns) == 0 {
		return s, nil
	}

	ac, err := ahocorasick.NewBuilder().
		AddStrings(patterns).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("building word automaton: %w", err)
	}
	s.ac = ac
	return s, nil
}

// Words returns the scanner's word list in pattern order.
func (s *Scanner) Words() []string {
	return s.words
}

// Empty reports whether the scanner has no words.
func (s *Scanner) Empty() bool {
	return s == nil || s.ac == nil
}

// Scan returns all whole-word, case-insensitive occurrences of the
// scanner's words in text, sorted by start offset. Overlapping matches
// resolve to the leftmost-longest occurrence.
func (s *Scanner) Scan(text string) []Match {
	if s.Empty() || text == "" {
		return nil
	}

	folded, toOrig := foldWithOffsets(text)
	raw := s.ac.FindAllOverlapping([]byte(folded))

	var out []Match
	lastEnd := -1
	for _, m := range raw {
		start := toOrig[m.Start]
		end := toOrig[m.End]
		if start >= end || end > len(text) {
			continue
		}
		if !wholeWord(text, start, end) {
			continue
		}
		// Leftmost-longest: drop matches inside an already accepted span.
		if start < lastEnd {
			continue
		}
		out = append(out, Match{
			Start:   start,
			End:     end,
			Text:    text[start:end],
			Pattern: m.PatternID,
		})
		lastEnd = end
	}
	return out
}

// foldWithOffsets lowercases text rune by rune, recording for every byte of
// the folded output (plus one sentinel) the corresponding byte offset in the
// original text.
func foldWithOffsets(text string) (string, []int) {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)

	for i, r := range text {
		lo := unicode.ToLower(r)
		n := utf8.RuneLen(lo)
		if n < 0 {
			lo = r
			n = utf8.RuneLen(r)
		}
		for j := 0; j < n; j++ {
			offsets = append(offsets, i)
		}
		b.WriteRune(lo)
	}
	offsets = append(offsets, len(text))
	return b.String(), offsets
}

// wholeWord reports whether text[start:end] sits on word boundaries: the
// adjacent runes on both sides are neither letters nor digits.
func wholeWord(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
