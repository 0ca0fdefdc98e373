// Package model provides the statistical detector family: ONNX
// token-classification pipelines run in-process through hugot. Two detectors
// share one memoized runtime session — a specialized PII model and a general
// NER model used as its fallback and second opinion.
package model

import (
	"errors"
	"fmt"
	"sync"

	khugot "github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"golang.org/x/sync/singleflight"
)

// Detector names recorded in entity provenance.
const (
	SpecializedName = "model.pii"
	GeneralName     = "model.ner"
)

// Config locates the ONNX models on disk.
type Config struct {
	// SpecializedPath is the model directory for the PII-specific model.
	SpecializedPath string `json:"specialized_path"`
	// GeneralPath is the model directory for the general NER model.
	GeneralPath string `json:"general_path"`
	// OnnxFilename selects the ONNX file within each model directory.
	// Empty means "model.onnx".
	OnnxFilename string `json:"onnx_filename,omitempty"`
}

// InitError wraps a pipeline initialization failure so callers can
// distinguish "model unavailable" from a detection failure.
type InitError struct {
	Model string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("model %s: initialization failed: %v", e.Model, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// handle owns the shared runtime session and the loaded pipelines.
type handle struct {
	session     *khugot.Session
	specialized *pipelines.TokenClassificationPipeline
	general     *pipelines.TokenClassificationPipeline
}

// Loader lazily initializes the model handle exactly once. Model load is
// slow and idempotent, so concurrent first callers are coalesced onto a
// single in-flight initialization; all of them observe the same result.
// A successful handle is memoized for the process lifetime (or until Reset).
type Loader struct {
	cfg Config

	mu     sync.Mutex
	loaded *handle

	group singleflight.Group
}

// NewLoader returns a Loader for the given model locations. Nothing is
// loaded until the first detector call.
func NewLoader(cfg Config) *Loader {
	return &Loader{cfg: cfg}
}

// load returns the memoized handle, initializing it on first use. Failed
// initializations are not memoized: a later call retries.
func (l *Loader) load() (*handle, error) {
	l.mu.Lock()
	if l.loaded != nil {
		h := l.loaded
		l.mu.Unlock()
		return h, nil
	}
	l.mu.Unlock()

	v, err, _ := l.group.Do("init", func() (any, error) {
		h, err := l.initialize()
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.loaded = h
		l.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*handle), nil
}

// Loaded reports whether the handle has been initialized. It never triggers
// a load; health endpoints use it to report model state without paying for
// one.
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded != nil
}

// initialize builds the shared session and both pipelines. Either pipeline
// failing leaves the other one serving; the handle fails only when no
// configured pipeline loads.
func (l *Loader) initialize() (*handle, error) {
	if l.cfg.SpecializedPath == "" && l.cfg.GeneralPath == "" {
		return nil, &InitError{Model: "all", Err: errors.New("no model paths configured")}
	}

	onnx := l.cfg.OnnxFilename
	if onnx == "" {
		onnx = "model.onnx"
	}

	session, err := newSession()
	if err != nil {
		return nil, &InitError{Model: "session", Err: err}
	}

	h := &handle{session: session}

	var specErr, genErr error
	if l.cfg.SpecializedPath != "" {
		h.specialized, specErr = newTokenClassifier(session, l.cfg.SpecializedPath, onnx, "pii")
	}
	if l.cfg.GeneralPath != "" {
		h.general, genErr = newTokenClassifier(session, l.cfg.GeneralPath, onnx, "ner")
	}

	if h.specialized == nil && h.general == nil {
		_ = session.Destroy()
		switch {
		case specErr != nil && genErr != nil:
			return nil, &InitError{Model: "all", Err: errors.Join(specErr, genErr)}
		case specErr != nil:
			return nil, &InitError{Model: SpecializedName, Err: specErr}
		default:
			return nil, &InitError{Model: GeneralName, Err: genErr}
		}
	}
	return h, nil
}

// Session and pipeline construction go through variables so tests can
// substitute fakes without an ONNX runtime on disk.
var newSession = func() (*khugot.Session, error) {
	return khugot.NewGoSession()
}

var newTokenClassifier = func(session *khugot.Session, modelPath, onnx, name string) (*pipelines.TokenClassificationPipeline, error) {
	cfg := khugot.TokenClassificationConfig{
		ModelPath:    modelPath,
		OnnxFilename: onnx,
		Name:         fmt.Sprintf("%s:%s", name, modelPath),
	}
	p, err := khugot.NewPipeline(session, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating token classification pipeline: %w", err)
	}
	// Aggregation is done by our own coalescer so fragment handling matches
	// across backends; the pipeline returns raw sub-word predictions.
	p.AggregationStrategy = "NONE"
	return p, nil
}

// Reset tears down the memoized handle. Intended for test teardown and for
// the serve layer's shutdown path.
func (l *Loader) Reset() {
	l.mu.Lock()
	h := l.loaded
	l.loaded = nil
	l.mu.Unlock()
	if h != nil && h.session != nil {
		_ = h.session.Destroy()
	}
}
