package wordscan

import "testing"

func TestScan_CaseInsensitiveWholeWord(t *testing.T) {
	t.Parallel()
	s, err := New([]string{"smith"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text := "Smith met SMITH but not blacksmith or smithy."
	matches := s.Scan(text)
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2 (%v)", len(matches), matches)
	}
	if matches[0].Text != "Smith" || matches[0].Start != 0 {
		t.Errorf("first match = %+v, want Smith at 0", matches[0])
	}
	if matches[1].Text != "SMITH" {
		t.Errorf("second match = %+v, want SMITH", matches[1])
	}
}

func TestScan_MultiWordPhrase(t *testing.T) {
	t.Parallel()
	s, err := New([]string{"john smith", "acme corp"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text := "John Smith works at Acme Corp with john smith's brother."
	matches := s.Scan(text)
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want 3 (%v)", len(matches), matches)
	}
	for _, m := range matches {
		if text[m.Start:m.End] != m.Text {
			t.Errorf("offset mismatch: text[%d:%d] = %q, Text = %q", m.Start, m.End, text[m.Start:m.End], m.Text)
		}
	}
}

func TestScan_OffsetsSurviveUnicodeFolding(t *testing.T) {
	t.Parallel()
	s, err := New([]string{"müller"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text := "Frau MÜLLER sprach mit Müller."
	matches := s.Scan(text)
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2 (%v)", len(matches), matches)
	}
	for _, m := range matches {
		if text[m.Start:m.End] != m.Text {
			t.Errorf("offset mismatch: text[%d:%d] = %q, Text = %q", m.Start, m.End, text[m.Start:m.End], m.Text)
		}
	}
}

func TestScan_EmptyScanner(t *testing.T) {
	t.Parallel()
	s, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !s.Empty() {
		t.Error("expected Empty() for nil word list")
	}
	if got := s.Scan("anything at all"); got != nil {
		t.Errorf("Scan = %v, want nil", got)
	}
}

func TestNew_DropsBlankAndDuplicateWords(t *testing.T) {
	t.Parallel()
	s, err := New([]string{"Alpha", "alpha", "  ", "beta"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := len(s.Words()); got != 2 {
		t.Fatalf("len(Words) = %d, want 2", got)
	}
}

func TestScan_PatternIndexStable(t *testing.T) {
	t.Parallel()
	s, err := New([]string{"alice", "bob"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	matches := s.Scan("bob called Alice")
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Pattern != 1 || matches[1].Pattern != 0 {
		t.Errorf("pattern indexes = %d,%d, want 1,0", matches[0].Pattern, matches[1].Pattern)
	}
}
