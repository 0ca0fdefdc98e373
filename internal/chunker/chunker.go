// Package chunker splits documents into overlapping, offset-tagged slices
// sized for a detector's input budget.
//
// Sizing uses an approximate token count, not a real tokenizer: a
// whitespace-delimited word is estimated at 0.75 tokens, rounded up per
// chunk. The estimate only needs to be an upper-bound-ish heuristic; the
// correctness requirement is the overlap guarantee, which ensures any entity
// crossing a chunk boundary is fully contained in at least one chunk.
//
// The invariant text[c.Start:c.Start+len(c.Text)] == c.Text holds for every
// emitted chunk.
package chunker

import "math"

const (
	// DefaultMaxTokens is the default per-chunk token budget.
	DefaultMaxTokens = 500
	// DefaultOverlapTokens is the default token overlap between chunks.
	DefaultOverlapTokens = 50

	// tokensPerWord is the documented approximation used to estimate token
	// counts from whitespace-delimited word counts.
	tokensPerWord = 0.75
)

// Chunk is a bounded slice of the source document.
type Chunk struct {
	// Text is the chunk's content.
	Text string `json:"text"`
	// Start is the absolute byte offset of Text in the source document.
	Start int `json:"start"`
	// EstTokens is the estimated token count for Text.
	EstTokens int `json:"est_tokens"`
}

// Chunker splits text by token budget.
type Chunker struct {
	maxTokens     int
	overlapTokens int
}

// New returns a Chunker with the given budgets. Non-positive values fall
// back to the defaults; overlap is clamped below maxTokens so every chunk
// makes forward progress.
func New(maxTokens, overlapTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if overlapTokens < 0 {
		overlapTokens = DefaultOverlapTokens
	}
	if overlapTokens >= maxTokens {
		overlapTokens = maxTokens / 2
	}
	return &Chunker{maxTokens: maxTokens, overlapTokens: overlapTokens}
}

// EstimateTokens estimates the token count for a span of wordCount
// whitespace-delimited words.
func EstimateTokens(wordCount int) int {
	if wordCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(wordCount) * tokensPerWord))
}

// word is a whitespace-delimited span of the source text.
type word struct {
	start int
	end   int
}

// splitWords records the byte span of every whitespace-delimited word.
func splitWords(text string) []word {
	var words []word
	start := -1
	for i := 0; i < len(text); i++ {
		if isSpace(text[i]) {
			if start >= 0 {
				words = append(words, word{start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, word{start: start, end: len(text)})
	}
	return words
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// Split chunks text under the configured budget. Zero-length input yields no
// chunks; text within budget yields a single chunk at offset 0.
func (c *Chunker) Split(text string) []Chunk {
	if len(text) == 0 {
		return nil
	}

	words := splitWords(text)
	if EstimateTokens(len(words)) <= c.maxTokens {
		return []Chunk{{Text: text, Start: 0, EstTokens: EstimateTokens(len(words))}}
	}

	var chunks []Chunk
	i := 0
	for i < len(words) {
		// Accumulate words until adding the next one would exceed the budget.
		j := i + 1
		for j < len(words) && EstimateTokens(j+1-i) <= c.maxTokens {
			j++
		}
		// A single over-budget word is still emitted alone: forward progress
		// beats the budget.

		start := words[i].start
		end := words[j-1].end
		chunks = append(chunks, Chunk{
			Text:      text[start:end],
			Start:     start,
			EstTokens: EstimateTokens(j - i),
		})

		if j >= len(words) {
			break
		}

		// Begin the next chunk `overlap` tokens before this chunk's end so a
		// boundary-crossing entity is whole in at least one chunk.
		back := j
		for back > i+1 && EstimateTokens(j-(back-1)) <= c.overlapTokens {
			back--
		}
		i = back
	}
	return chunks
}
