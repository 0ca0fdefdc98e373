package detect

import (
	"context"
	"testing"

	"github.com/Dicklesworthstone/redactd/internal/entity"
)

func detections(t *testing.T, text string) []entity.Detection {
	t.Helper()
	out, err := NewPatternDetector().Detect(context.Background(), text)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return out
}

func findCategory(ds []entity.Detection, c entity.Category) *entity.Detection {
	for i := range ds {
		if ds[i].Label == string(c) {
			return &ds[i]
		}
	}
	return nil
}

func TestDetect_Email(t *testing.T) {
	t.Parallel()
	text := "Reach me at jane.doe+work@example.co.uk today."
	d := findCategory(detections(t, text), entity.CategoryEmail)
	if d == nil {
		t.Fatal("no email detection")
	}
	if d.Text != "jane.doe+work@example.co.uk" {
		t.Errorf("Text = %q", d.Text)
	}
	if text[d.Start:d.End] != d.Text {
		t.Errorf("offsets wrong: %q", text[d.Start:d.End])
	}
	if d.Score != patternStrongConfidence {
		t.Errorf("Score = %v, want %v", d.Score, patternStrongConfidence)
	}
}

func TestDetect_Phone(t *testing.T) {
	t.Parallel()
	for _, text := range []string{
		"call 555-123-4567 now",
		"call (555) 123-4567 now",
		"call +1 555 123 4567 now",
	} {
		if findCategory(detections(t, text), entity.CategoryPhone) == nil {
			t.Errorf("no phone detection in %q", text)
		}
	}
}

func TestDetect_SSN(t *testing.T) {
	t.Parallel()
	d := findCategory(detections(t, "SSN 123-45-6789 on file"), entity.CategoryIdentifier)
	if d == nil {
		t.Fatal("no identifier detection")
	}
	if d.Text != "123-45-6789" {
		t.Errorf("Text = %q", d.Text)
	}
}

func TestDetect_CreditCardLuhn(t *testing.T) {
	t.Parallel()
	// 4111111111111111 passes Luhn; 4111111111111112 does not.
	if findCategory(detections(t, "card 4111 1111 1111 1111 ok"), entity.CategoryCreditCard) == nil {
		t.Error("valid card number not detected")
	}
	if findCategory(detections(t, "card 4111 1111 1111 1112 bad"), entity.CategoryCreditCard) != nil {
		t.Error("Luhn-failing number was detected")
	}
}

func TestDetect_IPAddress(t *testing.T) {
	t.Parallel()
	if findCategory(detections(t, "from 192.168.1.77 at night"), entity.CategoryIPAddress) == nil {
		t.Error("valid IPv4 not detected")
	}
	if findCategory(detections(t, "version 300.400.500.600 string"), entity.CategoryIPAddress) != nil {
		t.Error("out-of-range quad was detected")
	}
}

func TestDetect_NoFindings(t *testing.T) {
	t.Parallel()
	if got := detections(t, "nothing sensitive in this sentence"); len(got) != 0 {
		t.Errorf("got %d detections, want 0: %v", len(got), got)
	}
}

func TestLuhnValid(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want bool
	}{
		{"4111111111111111", true},
		{"4111-1111-1111-1111", true},
		{"4111111111111112", false},
		{"1234", false},       // too short
		{"41111111x1111111", false}, // non-digit
	}
	for _, tc := range cases {
		if got := luhnValid(tc.in); got != tc.want {
			t.Errorf("luhnValid(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
