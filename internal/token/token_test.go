package token

import (
	"strings"
	"testing"

	"github.com/Dicklesworthstone/redactd/internal/entity"
)

func TestRedact_Empty(t *testing.T) {
	t.Parallel()
	res := Redact("no entities here", nil)
	if res.RedactedText != "no entities here" || len(res.Tokens) != 0 {
		t.Fatalf("got %+v", res)
	}
}

func TestRedact_PerCategoryCounters(t *testing.T) {
	t.Parallel()
	text := "Alice met Bob at alice@example.com yesterday"
	ents := []entity.Entity{
		{Category: entity.CategoryPerson, Start: 0, End: 5},
		{Category: entity.CategoryPerson, Start: 10, End: 13},
		{Category: entity.CategoryEmail, Start: 17, End: 34},
	}
	res := Redact(text, ents)

	if len(res.Tokens) != 3 {
		t.Fatalf("len(tokens) = %d, want 3", len(res.Tokens))
	}
	want := []string{"<PII_PERSON_1>", "<PII_PERSON_2>", "<PII_EMAIL_1>"}
	for i, w := range want {
		if res.Tokens[i].Placeholder != w {
			t.Errorf("token %d placeholder = %q, want %q", i, res.Tokens[i].Placeholder, w)
		}
	}
	if res.Tokens[0].Original != "Alice" || res.Tokens[1].Original != "Bob" {
		t.Errorf("originals = %q, %q", res.Tokens[0].Original, res.Tokens[1].Original)
	}
	wantText := "<PII_PERSON_1> met <PII_PERSON_2> at <PII_EMAIL_1> yesterday"
	if res.RedactedText != wantText {
		t.Errorf("RedactedText = %q, want %q", res.RedactedText, wantText)
	}
}

func TestRedact_MonotonicNumbering(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("name ", 10)
	var ents []entity.Entity
	for i := 0; i < 10; i++ {
		ents = append(ents, entity.Entity{Category: entity.CategoryPerson, Start: i * 5, End: i*5 + 4})
	}
	res := Redact(text, ents)
	for i, tok := range res.Tokens {
		if tok.Seq != i+1 {
			t.Errorf("token %d seq = %d, want %d", i, tok.Seq, i+1)
		}
	}
}

func TestSplice_BackToFront(t *testing.T) {
	t.Parallel()
	text := "aa bb cc"
	tokens := []Token{
		{Placeholder: "<PII_MISC_1>", Start: 0, End: 2},
		{Placeholder: "<PII_MISC_2>", Start: 6, End: 8},
	}
	got := Splice(text, tokens)
	if want := "<PII_MISC_1> bb <PII_MISC_2>"; got != want {
		t.Errorf("Splice = %q, want %q", got, want)
	}
}

func TestValidPlaceholder(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want bool
	}{
		{"<PII_PERSON_1>", true},
		{"<PII_CREDIT_CARD_12>", true},
		{"<PII_PERSON_01>", false}, // leading zero
		{"<PII_PERSON_>", false},
		{"<PII_person_1>", false},
		{"<PERSON_1>", false},
		{"PII_PERSON_1", false},
		{"<PII_PERSON_1> ", false},
	}
	for _, tc := range cases {
		if got := ValidPlaceholder(tc.in); got != tc.want {
			t.Errorf("ValidPlaceholder(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	t.Parallel()
	text := "Call Jane Doe at 555-123-4567."
	ents := []entity.Entity{
		{Category: entity.CategoryPerson, Start: 5, End: 13},
		{Category: entity.CategoryPhone, Start: 17, End: 29},
	}
	res := Redact(text, ents)
	restored, skipped := Restore(res.RedactedText, res.Tokens)
	if restored != text {
		t.Errorf("restored = %q, want %q", restored, text)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
}

func TestRestore_DuplicatedPlaceholder(t *testing.T) {
	t.Parallel()
	tokens := []Token{{Category: entity.CategoryPerson, Seq: 1, Placeholder: "<PII_PERSON_1>", Original: "Jane"}}
	got, _ := Restore("<PII_PERSON_1> saw <PII_PERSON_1> in the mirror", tokens)
	if want := "Jane saw Jane in the mirror"; got != want {
		t.Errorf("Restore = %q, want %q", got, want)
	}
}

// A placeholder that is a prefix of another must not clobber the longer one.
func TestRestore_PrefixSafety(t *testing.T) {
	t.Parallel()
	tokens := []Token{
		{Placeholder: "<PII_PERSON_1>", Original: "Ann"},
		{Placeholder: "<PII_PERSON_12>", Original: "Zoe"},
	}
	got, _ := Restore("<PII_PERSON_12> then <PII_PERSON_1>", tokens)
	if want := "Zoe then Ann"; got != want {
		t.Errorf("Restore = %q, want %q", got, want)
	}
}

func TestRestore_SkipsMalformedPlaceholders(t *testing.T) {
	t.Parallel()
	tokens := []Token{
		{Placeholder: "<PII_PERSON_1>", Original: "Jane"},
		{Placeholder: "<PII_bad_0>", Original: "evil"},
	}
	got, skipped := Restore("<PII_PERSON_1> and <PII_bad_0>", tokens)
	if want := "Jane and <PII_bad_0>"; got != want {
		t.Errorf("Restore = %q, want %q", got, want)
	}
	if len(skipped) != 1 || skipped[0] != "<PII_bad_0>" {
		t.Errorf("skipped = %v", skipped)
	}
}

func TestRestore_EmptyInputs(t *testing.T) {
	t.Parallel()
	if got, _ := Restore("", []Token{{Placeholder: "<PII_PERSON_1>", Original: "x"}}); got != "" {
		t.Errorf("Restore(\"\") = %q, want \"\"", got)
	}
	if got, _ := Restore("unchanged", nil); got != "unchanged" {
		t.Errorf("Restore with no tokens = %q, want input", got)
	}
}

func TestMap(t *testing.T) {
	t.Parallel()
	tokens := []Token{
		{Placeholder: "<PII_PERSON_1>", Original: "Jane"},
		{Placeholder: "<PII_EMAIL_1>", Original: "j@x.com"},
	}
	m := Map(tokens)
	if len(m) != 2 || m["<PII_PERSON_1>"] != "Jane" || m["<PII_EMAIL_1>"] != "j@x.com" {
		t.Errorf("Map = %v", m)
	}
}
