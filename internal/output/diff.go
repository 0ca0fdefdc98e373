// Package output renders redaction results for the CLI.
package output

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// RedactionDiff summarizes how redaction changed a document.
type RedactionDiff struct {
	OriginalLines int     `json:"original_lines"`
	RedactedLines int     `json:"redacted_lines"`
	Similarity    float64 `json:"similarity"`
	UnifiedDiff   string  `json:"diff,omitempty"`
}

// Compare diffs the original text against its redacted form.
func Compare(original, redacted string) *RedactionDiff {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, redacted, true)

	// Similarity in [0,1]: how much of the document survived untouched.
	dist := dmp.DiffLevenshtein(diffs)
	maxLen := len(original)
	if len(redacted) > maxLen {
		maxLen = len(redacted)
	}
	similarity := 0.0
	if maxLen > 0 {
		similarity = 1.0 - (float64(dist) / float64(maxLen))
	}

	patches := dmp.PatchMake(original, diffs)

	return &RedactionDiff{
		OriginalLines: countLines(original),
		RedactedLines: countLines(redacted),
		Similarity:    similarity,
		UnifiedDiff:   dmp.PatchToText(patches),
	}
}

// PrettyDiff renders an ANSI-colored inline diff for terminal preview.
func PrettyDiff(original, redacted string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, redacted, true)
	return dmp.DiffPrettyText(diffs)
}

// countLines counts the number of lines in a string.
// Empty strings return 0, trailing newlines don't count as extra lines.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return 0
	}
	return len(strings.Split(s, "\n"))
}
