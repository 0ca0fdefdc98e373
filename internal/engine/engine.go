// Package engine runs the full redaction pipeline: chunk, detect across all
// adapters concurrently, normalize, merge, filter, tokenize, and link. The
// engine holds no per-request state; every call is independent.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/redactd/internal/chunker"
	"github.com/Dicklesworthstone/redactd/internal/detect"
	"github.com/Dicklesworthstone/redactd/internal/detect/model"
	"github.com/Dicklesworthstone/redactd/internal/entity"
	"github.com/Dicklesworthstone/redactd/internal/filter"
	"github.com/Dicklesworthstone/redactd/internal/link"
	"github.com/Dicklesworthstone/redactd/internal/merge"
	"github.com/Dicklesworthstone/redactd/internal/metrics"
	"github.com/Dicklesworthstone/redactd/internal/token"
)

const (
	// DefaultMaxInputLen caps request text size.
	DefaultMaxInputLen = 50000

	// DefaultWorkers bounds concurrent detector calls.
	DefaultWorkers = 4

	// DefaultDetectTimeout bounds a single detector call on one chunk.
	DefaultDetectTimeout = 30 * time.Second
)

// ValidationError reports a rejected request field. Handlers map it to a
// 4xx response; everything else is a 5xx.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Options configures an Engine. Zero values fall back to defaults; only
// detectors beyond the pattern family are optional.
type Options struct {
	// Pattern is the regex detector; defaults to detect.NewPatternDetector.
	Pattern detect.Detector
	// Specialized is the primary statistical detector (PII model). Optional.
	Specialized detect.Detector
	// General is the fallback statistical detector (general NER). Optional;
	// ignored unless Specialized is set.
	General detect.Detector

	Normalizer *entity.Normalizer

	MaxTokens     int
	OverlapTokens int
	Workers       int
	DetectTimeout time.Duration
	MaxInputLen   int

	Logger  *log.Logger
	Metrics *metrics.Collector
}

// Engine orchestrates the redaction pipeline.
type Engine struct {
	chunker     *chunker.Chunker
	pattern     detect.Detector
	specialized detect.Detector
	general     detect.Detector
	normalizer  *entity.Normalizer
	workers     int
	timeout     time.Duration
	maxInput    int
	logger      *log.Logger
	metrics     *metrics.Collector
}

func New(opts Options) *Engine {
	if opts.Pattern == nil {
		opts.Pattern = detect.NewPatternDetector()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = entity.NewNormalizer()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.DetectTimeout <= 0 {
		opts.DetectTimeout = DefaultDetectTimeout
	}
	if opts.MaxInputLen <= 0 {
		opts.MaxInputLen = DefaultMaxInputLen
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	general := opts.General
	if opts.Specialized == nil {
		general = nil
	}
	return &Engine{
		chunker:     chunker.New(opts.MaxTokens, opts.OverlapTokens),
		pattern:     opts.Pattern,
		specialized: opts.Specialized,
		general:     general,
		normalizer:  opts.Normalizer,
		workers:     opts.Workers,
		timeout:     opts.DetectTimeout,
		maxInput:    opts.MaxInputLen,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
}

// Request carries one redaction call. Threshold must be in [0,1]; callers
// wanting the standard cutoff pass filter.DefaultThreshold.
type Request struct {
	Text         string
	Threshold    float64
	AlwaysRedact []string
	AlwaysIgnore []string
}

// Result is the outcome of a redaction call.
type Result struct {
	RedactedText string        `json:"redacted_text"`
	Tokens       []token.Token `json:"tokens"`
	EntityCount  int           `json:"entity_count"`
}

// Redact runs the pipeline on req.Text. Individual detector failures and
// caller cancellation degrade the result rather than failing it; only
// invalid input returns an error. When ctx dies mid-detection the result
// is built from whichever (chunk, detector) calls completed.
func (e *Engine) Redact(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if len(req.Text) > e.maxInput {
		return Result{}, &ValidationError{
			Field:  "text",
			Reason: fmt.Sprintf("exceeds maximum length of %d characters", e.maxInput),
		}
	}
	flt, err := filter.New(req.Threshold, req.AlwaysRedact, req.AlwaysIgnore)
	if err != nil {
		return Result{}, &ValidationError{Field: "threshold", Reason: err.Error()}
	}

	chunks := e.chunker.Split(req.Text)
	byDetector := e.detectAll(ctx, chunks)

	ents := byDetector[e.pattern.Name()]
	ents = append(ents, e.resolveModelEntities(byDetector)...)

	merged := merge.Merge(req.Text, ents)
	kept := flt.Apply(req.Text, merged)

	res := token.Redact(req.Text, kept)
	res = link.Link(req.Text, res)

	if e.metrics != nil {
		for _, t := range res.Tokens {
			e.metrics.AddEntity(string(t.Category))
		}
	}
	e.logger.Debug("redaction complete",
		"chunks", len(chunks), "entities", len(res.Tokens))

	return Result{
		RedactedText: res.RedactedText,
		Tokens:       res.Tokens,
		EntityCount:  len(res.Tokens),
	}, nil
}

// detectAll fans (chunk, detector) pairs across a bounded worker pool and
// returns absolute-offset entities grouped by detector name. A failed or
// canceled call contributes nothing; the caller's context dying cancels the
// units still in flight and whatever completed is returned.
func (e *Engine) detectAll(ctx context.Context, chunks []chunker.Chunk) map[string][]entity.Entity {
	detectors := []detect.Detector{e.pattern}
	if e.specialized != nil {
		detectors = append(detectors, e.specialized)
	}
	if e.general != nil {
		detectors = append(detectors, e.general)
	}

	var (
		mu         sync.Mutex
		byDetector = make(map[string][]entity.Entity, len(detectors))
	)

	var g errgroup.Group
	g.SetLimit(e.workers)

	for _, ch := range chunks {
		for _, det := range detectors {
			ch, det := ch, det
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				cctx, cancel := context.WithTimeout(ctx, e.timeout)
				defer cancel()

				found, err := det.Detect(cctx, ch.Text)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					e.logger.Warn("detector failed, continuing without it",
						"detector", det.Name(), "chunk_start", ch.Start, "err", err)
					if e.metrics != nil {
						e.metrics.IncDetectorFailure(det.Name())
					}
					return nil
				}

				ents := e.normalizer.NormalizeAll(found, ch.Start, det.Name())
				mu.Lock()
				byDetector[det.Name()] = append(byDetector[det.Name()], ents...)
				mu.Unlock()
				return nil
			})
		}
	}

	// Workers never return errors; Wait only joins them.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		e.logger.Warn("detection cut short, proceeding with completed results", "err", err)
	}
	return byDetector
}

// resolveModelEntities applies primary/fallback consensus when both
// statistical detectors produced output.
func (e *Engine) resolveModelEntities(byDetector map[string][]entity.Entity) []entity.Entity {
	if e.specialized == nil {
		return nil
	}
	specialized := byDetector[e.specialized.Name()]
	if e.general == nil {
		return specialized
	}
	return model.ResolveConsensus(specialized, byDetector[e.general.Name()])
}

// Detectors returns the names of the configured detectors, pattern first.
func (e *Engine) Detectors() []string {
	names := []string{e.pattern.Name()}
	if e.specialized != nil {
		names = append(names, e.specialized.Name())
	}
	if e.general != nil {
		names = append(names, e.general.Name())
	}
	return names
}

// Restore replaces placeholders in text with their originals. Malformed
// placeholders are skipped and logged; restore itself never fails.
func (e *Engine) Restore(text string, tokens []token.Token) string {
	out, skipped := token.Restore(text, tokens)
	for _, p := range skipped {
		e.logger.Warn("skipping malformed placeholder", "placeholder", p)
	}
	return out
}

// Warmup exercises the statistical detectors once so the first real request
// does not pay model load time. Errors are for the caller to log; the engine
// works pattern-only regardless.
func (e *Engine) Warmup(ctx context.Context) error {
	for _, det := range []detect.Detector{e.specialized, e.general} {
		if det == nil {
			continue
		}
		if _, err := det.Detect(ctx, "warmup"); err != nil {
			return fmt.Errorf("warmup %s: %w", det.Name(), err)
		}
	}
	return nil
}
