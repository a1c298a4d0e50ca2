package chunker

import (
	"errors"
	"fmt"
	"strings"

	"article-extract/internal/tokens"
)

const (
	DefaultMaxTokens   = 3000
	DefaultOverlap     = 200
	DefaultBackoffStep = 100
)

var (
	// ErrInvalidConfiguration is returned when the options cannot make progress.
	ErrInvalidConfiguration = errors.New("invalid chunker configuration")
	// ErrChunkTooLarge is returned when a single word exceeds the token budget.
	ErrChunkTooLarge = errors.New("chunk exceeds token budget")
)

// Options controls how text is chunked.
type Options struct {
	// MaxTokens is the token budget per chunk. It is also the initial
	// word-count guess for every window.
	MaxTokens int
	// Overlap is the number of words shared by consecutive chunks.
	Overlap int
	// BackoffStep is the number of words dropped each time a window is
	// over budget.
	BackoffStep int
}

// DefaultOptions returns 3000 tokens per chunk with a 200 word overlap.
func DefaultOptions() Options {
	return Options{
		MaxTokens:   DefaultMaxTokens,
		Overlap:     DefaultOverlap,
		BackoffStep: DefaultBackoffStep,
	}
}

// WithDefaults fills zero fields from DefaultOptions. Overlap is only
// defaulted when MaxTokens is also unset. A zero BackoffStep is always
// treated as DefaultBackoffStep by Split.
func (o Options) WithDefaults() Options {
	if o.MaxTokens == 0 {
		o.MaxTokens = DefaultMaxTokens
		if o.Overlap == 0 {
			o.Overlap = DefaultOverlap
		}
	}
	if o.BackoffStep == 0 {
		o.BackoffStep = DefaultBackoffStep
	}
	return o
}

// Validate reports whether the options guarantee forward progress.
func (o Options) Validate() error {
	switch {
	case o.MaxTokens <= 0:
		return fmt.Errorf("%w: max tokens must be positive, got %d", ErrInvalidConfiguration, o.MaxTokens)
	case o.Overlap < 0:
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidConfiguration, o.Overlap)
	case o.Overlap >= o.MaxTokens:
		return fmt.Errorf("%w: overlap %d must be less than max tokens %d", ErrInvalidConfiguration, o.Overlap, o.MaxTokens)
	case o.BackoffStep < 0:
		return fmt.Errorf("%w: backoff step must not be negative, got %d", ErrInvalidConfiguration, o.BackoffStep)
	}
	return nil
}

// Chunk represents a slice of the document text.
type Chunk struct {
	Index int `json:"index"`
	// Start and End delimit the chunk's word range [Start, End).
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Text       string `json:"text"`
	TokenCount int    `json:"token_count"`
	// Oversize marks a one-word chunk that is still over budget.
	Oversize bool `json:"oversize,omitempty"`
}

// TooLargeError lists the chunks that could not be brought within budget.
type TooLargeError struct {
	MaxTokens int
	Indexes   []int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%d chunk(s) exceed %d tokens: %v", len(e.Indexes), e.MaxTokens, e.Indexes)
}

func (e *TooLargeError) Unwrap() error { return ErrChunkTooLarge }

// Split partitions text into overlapping windows of at most MaxTokens
// tokens as measured by enc.
//
// Windows start as MaxTokens words and lose BackoffStep words at a time
// while over budget. The cursor advances by MaxTokens-Overlap words, so the
// stride assumes roughly one token per word. Only when a window had to be
// shortened below the stride does the cursor advance less, keeping every
// word covered.
//
// A word that alone exceeds the budget is still emitted, flagged Oversize,
// and the returned error wraps ErrChunkTooLarge. The chunks are valid in
// that case.
func Split(text string, opts Options, enc tokens.Encoder) ([]Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.BackoffStep == 0 {
		opts.BackoffStep = DefaultBackoffStep
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	stride := opts.MaxTokens - opts.Overlap
	var (
		chunks   []Chunk
		oversize []int
	)
	for start := 0; start < len(words); {
		end := start + min(opts.MaxTokens, len(words)-start)
		w := window{words: words[start:end], enc: enc, limit: opts.MaxTokens}
		n, count, err := w.fit(opts.BackoffStep)
		if err != nil {
			return nil, err
		}
		c := Chunk{
			Index:      len(chunks),
			Start:      start,
			End:        start + n,
			Text:       strings.Join(words[start:start+n], " "),
			TokenCount: count,
			Oversize:   count > opts.MaxTokens,
		}
		if c.Oversize {
			oversize = append(oversize, c.Index)
		}
		chunks = append(chunks, c)

		if n < end-start && n < stride {
			start += max(1, n-opts.Overlap)
		} else {
			start += min(stride, len(words)-start)
		}
	}
	if len(oversize) > 0 {
		return chunks, &TooLargeError{MaxTokens: opts.MaxTokens, Indexes: oversize}
	}
	return chunks, nil
}

// window is a candidate chunk being shrunk to fit the budget.
type window struct {
	words []string
	enc   tokens.Encoder
	limit int
}

func (w window) measure(n int) (int, error) {
	return tokens.Measure(w.enc, strings.Join(w.words[:n], " "))
}

// fit returns how many leading words fit in the budget and their token count.
// It drops step words at a time; once the window is no longer than step it
// binary-searches the largest fitting prefix. If no prefix fits, it returns
// the first word with its (over budget) count.
func (w window) fit(step int) (int, int, error) {
	n := len(w.words)
	count, err := w.measure(n)
	if err != nil {
		return 0, 0, err
	}
	for count > w.limit && n > step {
		n -= step
		if count, err = w.measure(n); err != nil {
			return 0, 0, err
		}
	}
	if count <= w.limit {
		return n, count, nil
	}

	// n words are over budget; find the largest prefix in [1, n) that is not.
	lo, hi := 0, n
	loCount := 0
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		c, err := w.measure(mid)
		if err != nil {
			return 0, 0, err
		}
		if c <= w.limit {
			lo, loCount = mid, c
		} else {
			hi = mid
		}
	}
	if lo > 0 {
		return lo, loCount, nil
	}
	single, err := w.measure(1)
	if err != nil {
		return 0, 0, err
	}
	return 1, single, nil
}
