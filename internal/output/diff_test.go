package output

import (
	"strings"
	"testing"
)

func TestCompare_Identical(t *testing.T) {
	t.Parallel()
	d := Compare("same text\n", "same text\n")
	if d.Similarity != 1.0 {
		t.Errorf("similarity = %v, want 1.0", d.Similarity)
	}
	if d.OriginalLines != 1 || d.RedactedLines != 1 {
		t.Errorf("lines = %d/%d, want 1/1", d.OriginalLines, d.RedactedLines)
	}
}

func TestCompare_Redacted(t *testing.T) {
	t.Parallel()
	original := "Contact John Smith today."
	redacted := "Contact <PII_PERSON_1> today."

	d := Compare(original, redacted)
	if d.Similarity <= 0 || d.Similarity >= 1 {
		t.Errorf("similarity = %v, want strictly between 0 and 1", d.Similarity)
	}
	if d.UnifiedDiff == "" {
		t.Error("expected non-empty unified diff")
	}
	if !strings.Contains(d.UnifiedDiff, "PII_PERSON_1") {
		t.Errorf("diff does not mention the placeholder:\n%s", d.UnifiedDiff)
	}
}

func TestCompare_Empty(t *testing.T) {
	t.Parallel()
	d := Compare("", "")
	if d.Similarity != 0 {
		t.Errorf("similarity = %v, want 0 for empty inputs", d.Similarity)
	}
	if d.OriginalLines != 0 {
		t.Errorf("lines = %d, want 0", d.OriginalLines)
	}
}

func TestCountLines(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"\n", 0},
		{"one", 1},
		{"one\n", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n", 2},
	}
	for _, tt := range tests {
		if got := countLines(tt.in); got != tt.want {
			t.Errorf("countLines(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
