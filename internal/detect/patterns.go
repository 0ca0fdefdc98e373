package detect

import (
	"context"
	"regexp"

	"github.com/Dicklesworthstone/redactd/internal/entity"
)

// patternConfidence is the fixed confidence for structural pattern matches.
// Patterns whose shape alone is near-conclusive (email, card number passing
// its checksum) score slightly higher.
const (
	patternConfidence       = 0.85
	patternStrongConfidence = 0.90
)

// pattern is one entry in the ordered pattern table. An optional validator
// rejects shape matches that fail a semantic check (e.g. Luhn).
type pattern struct {
	category  entity.Category
	re        *regexp.Regexp
	score     float64
	validator func(string) bool
}

// patternTable is evaluated in order against each chunk. Order matters only
// for readability; overlap resolution happens in the merger.
var patternTable = []pattern{
	{
		category: entity.CategoryEmail,
		re:       regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		score:    patternStrongConfidence,
	},
	{
		category: entity.CategoryPhone,
		re:       regexp.MustCompile(`(?:\+?\d{1,3}[ .-]?)?(?:\(\d{3}\)[ .-]?|\d{3}[ .-])\d{3}[ .-]\d{4}\b`),
		score:    patternConfidence,
	},
	{
		// US social security number, with separators required so plain
		// nine-digit account numbers don't collide.
		category: entity.CategoryIdentifier,
		re:       regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		score:    patternStrongConfidence,
	},
	{
		category:  entity.CategoryCreditCard,
		re:        regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`),
		score:     patternStrongConfidence,
		validator: luhnValid,
	},
	{
		category:  entity.CategoryIPAddress,
		re:        regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
		score:     patternConfidence,
		validator: ipv4Valid,
	},
	{
		category: entity.CategoryURL,
		re:       regexp.MustCompile(`\bhttps?://[^\s<>"]+`),
		score:    patternConfidence,
	},
}

// PatternDetector scans chunks against the fixed pattern table. It has no
// state beyond the compiled table and is always available: when every model
// detector fails, the pipeline degrades to this one.
type PatternDetector struct{}

// NewPatternDetector returns the pattern detector.
func NewPatternDetector() *PatternDetector {
	return &PatternDetector{}
}

// Name implements Detector.
func (p *PatternDetector) Name() string { return "pattern" }

// Detect implements Detector. It never fails; context is checked only
// between patterns since individual regex scans are fast.
func (p *PatternDetector) Detect(ctx context.Context, text string) ([]entity.Detection, error) {
	var out []entity.Detection
	for _, pat := range patternTable {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		for _, loc := range pat.re.FindAllStringIndex(text, -1) {
			matched := text[loc[0]:loc[1]]
			if pat.validator != nil && !pat.validator(matched) {
				continue
			}
			out = append(out, entity.Detection{
				Label: string(pat.category),
				Text:  matched,
				Start: loc[0],
				End:   loc[1],
				Score: pat.score,
			})
		}
	}
	return out, nil
}

// luhnValid reports whether the digits of s (ignoring spaces and dashes)
// form a plausible payment card number under the Luhn checksum.
func luhnValid(s string) bool {
	var digits []int
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			digits = append(digits, int(s[i]-'0'))
		case s[i] == ' ' || s[i] == '-':
		default:
			return false
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ipv4Valid rejects dotted quads with out-of-range octets.
func ipv4Valid(s string) bool {
	octet := 0
	count := 0
	digits := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			if digits == 0 || octet > 255 {
				return false
			}
			count++
			octet, digits = 0, 0
			continue
		}
		octet = octet*10 + int(s[i]-'0')
		digits++
	}
	return count == 4
}
