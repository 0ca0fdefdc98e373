package entity

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Detection is a raw detector finding with offsets relative to the chunk the
// detector saw. The normalizer turns Detections into Entities.
type Detection struct {
	// Label is the provider-specific label, e.g. "I-GIVENNAME" or "PER".
	Label string `json:"label"`
	// Text is the matched substring.
	Text string `json:"text"`
	// Start is the inclusive chunk-relative byte offset.
	Start int `json:"start"`
	// End is the exclusive chunk-relative byte offset.
	End int `json:"end"`
	// Score is the detector confidence in [0,1].
	Score float64 `json:"score"`
}

// defaultLabelMap maps provider vocabularies onto the canonical taxonomy.
// Keys are matched after stripping B-/I- prefixes and upper-casing.
var defaultLabelMap = map[string]Category{
	// Specialized PII model vocabulary.
	"GIVENNAME":        CategoryPerson,
	"SURNAME":          CategoryPerson,
	"MIDDLENAME":       CategoryPerson,
	"FULLNAME":         CategoryPerson,
	"EMAIL":            CategoryEmail,
	"TELEPHONENUM":     CategoryPhone,
	"PHONEIMEI":        CategoryIdentifier,
	"STREET":           CategoryAddress,
	"BUILDINGNUM":      CategoryAddress,
	"CITY":             CategoryLocation,
	"ZIPCODE":          CategoryAddress,
	"SOCIALNUM":        CategoryIdentifier,
	"ACCOUNTNUM":       CategoryIdentifier,
	"IDCARDNUM":        CategoryIdentifier,
	"DRIVERLICENSENUM": CategoryIdentifier,
	"PASSPORTNUM":      CategoryIdentifier,
	"TAXNUM":           CategoryIdentifier,
	"CREDITCARDNUMBER": CategoryCreditCard,
	"DATEOFBIRTH":      CategoryDate,
	"USERNAME":         CategoryUsername,
	"PASSWORD":         CategoryPassword,

	// General NER vocabulary.
	"PER":          CategoryPerson,
	"PERSON":       CategoryPerson,
	"ORG":          CategoryOrganization,
	"ORGANIZATION": CategoryOrganization,
	"LOC":          CategoryLocation,
	"GPE":          CategoryLocation,
	"LOCATION":     CategoryLocation,
	"DATE":         CategoryDate,
	"TIME":         CategoryDate,

	// Pattern detector vocabulary (already canonical, listed for clarity).
	"PHONE":       CategoryPhone,
	"ADDRESS":     CategoryAddress,
	"IDENTIFIER":  CategoryIdentifier,
	"CREDIT_CARD": CategoryCreditCard,
	"IP_ADDRESS":  CategoryIPAddress,
	"URL":         CategoryURL,
	"CUSTOM":      CategoryCustom,
	"MISC":        CategoryMisc,
}

// Normalizer rewrites raw detections into canonical entities.
type Normalizer struct {
	labels map[string]Category
}

// NewNormalizer returns a Normalizer using the built-in label table.
func NewNormalizer() *Normalizer {
	return &Normalizer{labels: defaultLabelMap}
}

// NewNormalizerWithOverrides returns a Normalizer whose built-in table is
// extended (and possibly shadowed) by the given overrides.
func NewNormalizerWithOverrides(overrides map[string]Category) *Normalizer {
	labels := make(map[string]Category, len(defaultLabelMap)+len(overrides))
	for k, v := range defaultLabelMap {
		labels[k] = v
	}
	for k, v := range overrides {
		labels[CleanLabel(k)] = v
	}
	return &Normalizer{labels: labels}
}

// LoadLabelOverrides reads a YAML file mapping provider labels to canonical
// category names, for deployments that point the engine at a model with a
// vocabulary the built-in table does not know.
func LoadLabelOverrides(path string) (map[string]Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading label map: %w", err)
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing label map %s: %w", path, err)
	}
	out := make(map[string]Category, len(raw))
	for k, v := range raw {
		out[k] = Category(strings.ToUpper(strings.TrimSpace(v)))
	}
	return out, nil
}

// CleanLabel strips sequence-labeling begin/continuation prefixes and
// upper-cases the remainder.
func CleanLabel(label string) string {
	label = strings.TrimSpace(label)
	label = strings.TrimPrefix(label, "B-")
	label = strings.TrimPrefix(label, "I-")
	return strings.ToUpper(label)
}

// Category resolves a provider label to its canonical category. Unknown
// labels pass through upper-cased; an empty label maps to MISC.
func (n *Normalizer) Category(label string) Category {
	clean := CleanLabel(label)
	if c, ok := n.labels[clean]; ok {
		return c
	}
	if clean == "" {
		return CategoryMisc
	}
	return Category(clean)
}

// Normalize converts a chunk-relative detection into an absolute Entity.
// chunkOffset is the chunk's start offset in the source document and detector
// names the originating detector.
func (n *Normalizer) Normalize(d Detection, chunkOffset int, detector string) Entity {
	return Entity{
		Category: n.Category(d.Label),
		Text:     d.Text,
		Start:    d.Start + chunkOffset,
		End:      d.End + chunkOffset,
		Score:    d.Score,
		Detector: detector,
	}
}

// NormalizeAll converts a batch of detections from one chunk.
func (n *Normalizer) NormalizeAll(ds []Detection, chunkOffset int, detector string) []Entity {
	if len(ds) == 0 {
		return nil
	}
	out := make([]Entity, 0, len(ds))
	for _, d := range ds {
		out = append(out, n.Normalize(d, chunkOffset, detector))
	}
	return out
}
