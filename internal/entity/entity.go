// Package entity defines the canonical PII taxonomy and the Entity type that
// flows through the redaction pipeline. Detectors speak their own label
// vocabularies; everything downstream of the normalizer speaks Category.
package entity

import "fmt"

// Category is the canonical classification of a detected span.
type Category string

const (
	CategoryPerson       Category = "PERSON"
	CategoryOrganization Category = "ORGANIZATION"
	CategoryLocation     Category = "LOCATION"
	CategoryAddress      Category = "ADDRESS"
	CategoryDate         Category = "DATE"
	CategoryEmail        Category = "EMAIL"
	CategoryPhone        Category = "PHONE"
	CategoryIdentifier   Category = "IDENTIFIER"
	CategoryCreditCard   Category = "CREDIT_CARD"
	CategoryIPAddress    Category = "IP_ADDRESS"
	CategoryURL          Category = "URL"
	CategoryUsername     Category = "USERNAME"
	CategoryPassword     Category = "PASSWORD"
	// CategoryCustom marks spans synthesized from user-supplied always-redact
	// words. Custom entities bypass the confidence threshold.
	CategoryCustom Category = "CUSTOM"
	// CategoryMisc is the fallback for labels with no mapping.
	CategoryMisc Category = "MISC"
)

// Entity is a detected span believed to be personally identifying.
// Offsets are absolute byte offsets into the source document.
type Entity struct {
	// Category is the canonical classification.
	Category Category `json:"category"`
	// Text is the matched substring, source[Start:End].
	Text string `json:"text"`
	// Start is the inclusive byte offset where the span begins.
	Start int `json:"start"`
	// End is the exclusive byte offset where the span ends.
	End int `json:"end"`
	// Score is the detector confidence in [0,1].
	Score float64 `json:"score"`
	// Detector identifies the detector that produced this entity.
	Detector string `json:"detector,omitempty"`
}

// Valid reports whether the entity's span is well formed against a source
// of the given length.
func (e Entity) Valid(sourceLen int) bool {
	return e.Start >= 0 && e.Start < e.End && e.End <= sourceLen
}

// Overlaps reports whether the entity's span intersects [start,end).
func (e Entity) Overlaps(start, end int) bool {
	return e.Start < end && e.End > start
}

func (e Entity) String() string {
	return fmt.Sprintf("%s[%d:%d](%.2f)", e.Category, e.Start, e.End, e.Score)
}

// piiSpecific is the set of categories for which the specialized model's
// opinion beats the general model's when both detect overlapping spans.
var piiSpecific = map[Category]bool{
	CategoryPerson:     true,
	CategoryEmail:      true,
	CategoryPhone:      true,
	CategoryAddress:    true,
	CategoryIdentifier: true,
}

// IsPIISpecific reports whether c belongs to the PII-specific allowlist used
// during cross-model consensus resolution.
func IsPIISpecific(c Category) bool {
	return piiSpecific[c]
}
