package token

import (
	"sort"
	"strings"
)

// Restore reverses redaction by literal substring replacement. The input may
// have been edited: placeholders can be moved, duplicated, or deleted, so
// offsets from the token list are meaningless here and are never consulted.
//
// Every occurrence of each placeholder is replaced globally. Placeholders
// are processed longest first so no placeholder string that is a prefix of
// another can corrupt a partial match. Tokens whose placeholder fails the
// strict pattern check are skipped, not fatal; their placeholders are
// returned so the caller can log them.
func Restore(text string, tokens []Token) (string, []string) {
	if text == "" || len(tokens) == 0 {
		return text, nil
	}

	valid := make([]Token, 0, len(tokens))
	var skipped []string
	for _, t := range tokens {
		if !ValidPlaceholder(t.Placeholder) {
			skipped = append(skipped, t.Placeholder)
			continue
		}
		valid = append(valid, t)
	}

	sort.Slice(valid, func(i, j int) bool {
		return len(valid[i].Placeholder) > len(valid[j].Placeholder)
	})

	out := text
	for _, t := range valid {
		out = strings.ReplaceAll(out, t.Placeholder, t.Original)
	}
	return out, skipped
}
