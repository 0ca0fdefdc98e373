package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dicklesworthstone/redactd/internal/entity"
	"github.com/Dicklesworthstone/redactd/internal/filter"
	"github.com/Dicklesworthstone/redactd/internal/logging"
	"github.com/Dicklesworthstone/redactd/internal/metrics"
	"github.com/Dicklesworthstone/redactd/internal/token"
)

type fakeFind struct {
	label string
	score float64
}

// fakeDetector emits a detection for every occurrence of each configured
// literal in the chunk text, fails every call when err is set, or hangs
// until the call's context dies when stall is set.
type fakeDetector struct {
	name  string
	finds map[string]fakeFind
	err   error
	stall bool
	calls atomic.Int64
}

func (f *fakeDetector) Name() string { return f.name }

func (f *fakeDetector) Detect(ctx context.Context, text string) ([]entity.Detection, error) {
	f.calls.Add(1)
	if f.stall {
		<-ctx.Done()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.Detection
	for lit, fd := range f.finds {
		for from := 0; ; {
			i := strings.Index(text[from:], lit)
			if i < 0 {
				break
			}
			start := from + i
			out = append(out, entity.Detection{
				Label: fd.label,
				Text:  lit,
				Start: start,
				End:   start + len(lit),
				Score: fd.score,
			})
			from = start + len(lit)
		}
	}
	return out, nil
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return New(opts)
}

func TestRedact_EndToEnd(t *testing.T) {
	t.Parallel()

	specialized := &fakeDetector{
		name:  "model.pii",
		finds: map[string]fakeFind{"John Smith": {label: "PER", score: 0.9}},
	}
	e := newTestEngine(t, Options{Specialized: specialized})

	src := "Contact John Smith at john@x.com or 555-123-4567."
	got, err := e.Redact(context.Background(), Request{
		Text:      src,
		Threshold: filter.DefaultThreshold,
	})
	if err != nil {
		t.Fatalf("Redact: %v", err)
	}

	want := "Contact <PII_PERSON_1> at <PII_EMAIL_1> or <PII_PHONE_1>."
	if got.RedactedText != want {
		t.Fatalf("redacted = %q, want %q", got.RedactedText, want)
	}
	if got.EntityCount != 3 || len(got.Tokens) != 3 {
		t.Fatalf("entity count = %d (%d tokens), want 3", got.EntityCount, len(got.Tokens))
	}

	restored := e.Restore(got.RedactedText, got.Tokens)
	if restored != src {
		t.Fatalf("round trip = %q, want %q", restored, src)
	}
}

func TestRedact_DetectorFailureDegrades(t *testing.T) {
	t.Parallel()

	col := metrics.NewCollector()
	specialized := &fakeDetector{name: "model.pii", err: errors.New("onnx session gone")}
	e := newTestEngine(t, Options{Specialized: specialized, Metrics: col})

	got, err := e.Redact(context.Background(), Request{
		Text:      "Mail a@b.com for details.",
		Threshold: filter.DefaultThreshold,
	})
	if err != nil {
		t.Fatalf("Redact should degrade, not fail: %v", err)
	}
	if len(got.Tokens) != 1 || got.Tokens[0].Category != entity.CategoryEmail {
		t.Fatalf("pattern results missing after model failure: %+v", got.Tokens)
	}
	if n := col.Snapshot().DetectorFailures["model.pii"]; n != 1 {
		t.Errorf("detector failures = %d, want 1", n)
	}
}

func TestRedact_ValidationErrors(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Options{MaxInputLen: 20})

	tests := []struct {
		name string
		req  Request
	}{
		{"empty text", Request{Text: "   ", Threshold: filter.DefaultThreshold}},
		{"too long", Request{Text: strings.Repeat("x", 21), Threshold: filter.DefaultThreshold}},
		{"threshold above one", Request{Text: "hello", Threshold: 1.5}},
		{"negative threshold", Request{Text: "hello", Threshold: -0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := e.Redact(context.Background(), tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestRedact_CallerDeadlineKeepsCompletedResults(t *testing.T) {
	t.Parallel()

	col := metrics.NewCollector()
	stuck := &fakeDetector{name: "model.pii", stall: true}
	e := newTestEngine(t, Options{Specialized: stuck, Metrics: col})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	got, err := e.Redact(ctx, Request{
		Text:      "Mail a@b.com for details.",
		Threshold: filter.DefaultThreshold,
	})
	if err != nil {
		t.Fatalf("deadline should degrade to completed results, not fail: %v", err)
	}
	if len(got.Tokens) != 1 || got.Tokens[0].Category != entity.CategoryEmail {
		t.Fatalf("pattern results missing after deadline: %+v", got.Tokens)
	}
	// The model call died with the caller, not on its own.
	if n := col.Snapshot().DetectorFailures["model.pii"]; n != 0 {
		t.Errorf("detector failures = %d, want 0", n)
	}
}

func TestRedact_CallerCancel(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := e.Redact(ctx, Request{Text: "mail a@b.com now", Threshold: filter.DefaultThreshold})
	if err != nil {
		t.Fatalf("cancellation should not fail the call: %v", err)
	}
	// Nothing completed, so nothing is redacted.
	if len(got.Tokens) != 0 || got.RedactedText != "mail a@b.com now" {
		t.Fatalf("pre-canceled call should return the input untouched, got %+v", got)
	}
}

func TestRedact_ConsensusMergesModelPair(t *testing.T) {
	t.Parallel()

	specialized := &fakeDetector{
		name:  "model.pii",
		finds: map[string]fakeFind{"Jane Roe": {label: "SURNAME", score: 0.8}},
	}
	general := &fakeDetector{
		name:  "model.ner",
		finds: map[string]fakeFind{"Jane Roe": {label: "PER", score: 0.7}},
	}
	e := newTestEngine(t, Options{Specialized: specialized, General: general})

	got, err := e.Redact(context.Background(), Request{
		Text:      "Witness Jane Roe testified.",
		Threshold: filter.DefaultThreshold,
	})
	if err != nil {
		t.Fatalf("Redact: %v", err)
	}
	// Both models saw the same span; consensus must yield one token.
	if len(got.Tokens) != 1 {
		t.Fatalf("tokens = %+v, want exactly one", got.Tokens)
	}
	if got.Tokens[0].Category != entity.CategoryPerson || got.Tokens[0].Original != "Jane Roe" {
		t.Fatalf("token = %+v, want PERSON %q", got.Tokens[0], "Jane Roe")
	}
}

func TestRedact_LongInputCoversAllChunks(t *testing.T) {
	t.Parallel()

	words := make([]string, 2000)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	words[1500] = "reach-me@example.com"
	src := strings.Join(words, " ")

	e := newTestEngine(t, Options{})
	got, err := e.Redact(context.Background(), Request{Text: src, Threshold: filter.DefaultThreshold})
	if err != nil {
		t.Fatalf("Redact: %v", err)
	}

	var email *token.Token
	for i := range got.Tokens {
		if got.Tokens[i].Category == entity.CategoryEmail {
			email = &got.Tokens[i]
			break
		}
	}
	if email == nil {
		t.Fatalf("email deep in the document not detected: %d tokens", len(got.Tokens))
	}
	if email.Original != "reach-me@example.com" {
		t.Errorf("email original = %q, want full address", email.Original)
	}
	if src[email.Start:email.End] != email.Original {
		t.Errorf("token span [%d,%d) does not match source", email.Start, email.End)
	}
	if strings.Contains(got.RedactedText, "reach-me@example.com") {
		t.Error("redacted text still contains the address")
	}
}

func TestRedact_UserWordLists(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Options{})
	got, err := e.Redact(context.Background(), Request{
		Text:         "ProjectX ships after john@x.com signs off.",
		Threshold:    filter.DefaultThreshold,
		AlwaysRedact: []string{"ProjectX"},
		AlwaysIgnore: []string{"john@x.com"},
	})
	if err != nil {
		t.Fatalf("Redact: %v", err)
	}

	if len(got.Tokens) != 1 {
		t.Fatalf("tokens = %+v, want only the custom word", got.Tokens)
	}
	tok := got.Tokens[0]
	if tok.Category != entity.CategoryCustom || tok.Original != "ProjectX" {
		t.Fatalf("token = %+v, want CUSTOM ProjectX", tok)
	}
	if strings.Contains(got.RedactedText, "ProjectX") || !strings.Contains(got.RedactedText, "john@x.com") {
		t.Fatalf("word lists not honored: %q", got.RedactedText)
	}
}

func TestRedact_DispatchesEveryChunkDetectorPair(t *testing.T) {
	t.Parallel()

	specialized := &fakeDetector{name: "model.pii", finds: map[string]fakeFind{}}
	general := &fakeDetector{name: "model.ner", finds: map[string]fakeFind{}}
	e := newTestEngine(t, Options{Specialized: specialized, General: general, Workers: 2})

	_, err := e.Redact(context.Background(), Request{
		Text:      "short text with nothing sensitive",
		Threshold: filter.DefaultThreshold,
	})
	if err != nil {
		t.Fatalf("Redact: %v", err)
	}
	// One chunk, so each statistical detector runs exactly once.
	if n := specialized.calls.Load(); n != 1 {
		t.Errorf("specialized calls = %d, want 1", n)
	}
	if n := general.calls.Load(); n != 1 {
		t.Errorf("general calls = %d, want 1", n)
	}
}

func TestRestore_SkipsMalformedPlaceholder(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, Options{})
	out := e.Restore("keep <PII_BROKEN_0> and swap <PII_EMAIL_1>", []token.Token{
		{Placeholder: "<PII_BROKEN_0>", Original: "nope"},
		{Placeholder: "<PII_EMAIL_1>", Original: "a@b.com"},
	})
	want := "keep <PII_BROKEN_0> and swap a@b.com"
	if out != want {
		t.Fatalf("Restore = %q, want %q", out, want)
	}
}

func TestWarmup(t *testing.T) {
	t.Parallel()

	specialized := &fakeDetector{name: "model.pii", finds: map[string]fakeFind{}}
	general := &fakeDetector{name: "model.ner", finds: map[string]fakeFind{}}
	e := newTestEngine(t, Options{Specialized: specialized, General: general})

	if err := e.Warmup(context.Background()); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	if specialized.calls.Load() != 1 || general.calls.Load() != 1 {
		t.Fatalf("warmup calls = %d/%d, want 1/1",
			specialized.calls.Load(), general.calls.Load())
	}

	broken := &fakeDetector{name: "model.pii", err: errors.New("no model file")}
	e2 := newTestEngine(t, Options{Specialized: broken})
	if err := e2.Warmup(context.Background()); err == nil {
		t.Fatal("Warmup should surface the model error")
	}
}
