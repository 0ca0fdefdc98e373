// Package detect defines the detector capability contract and the pattern
// detector family. The engine depends only on the Detector interface; model
// and pattern variants are interchangeable behind it.
package detect

import (
	"context"

	"github.com/Dicklesworthstone/redactd/internal/entity"
)

// Detector finds PII candidates in one chunk of text. Offsets in the
// returned detections are relative to the given text, not the document.
// Implementations must be safe for concurrent use.
type Detector interface {
	// Name identifies the detector in entity provenance and logs.
	Name() string
	// Detect scans text and returns raw detections. An error means this
	// detector contributed nothing for this chunk; the pipeline treats that
	// as non-fatal.
	Detect(ctx context.Context, text string) ([]entity.Detection, error)
}
