// Package summarize runs the chunk, extract and synthesize steps over one
// document's text.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"article-extract/internal/chunker"
	"article-extract/internal/llm"
	"article-extract/internal/retry"
	"article-extract/internal/tokens"
)

// ErrEmptyText is returned when the input has no words to extract from.
var ErrEmptyText = errors.New("no text to extract from")

// Result holds every intermediate step of a run.
type Result struct {
	RunID    uuid.UUID        `json:"run_id"`
	Chunks   []chunker.Chunk  `json:"chunks"`
	Partials []llm.Extraction `json:"partials"`
	Final    llm.Extraction   `json:"final"`
	// Oversize lists the chunks that were over budget but still submitted.
	Oversize []int `json:"oversize,omitempty"`
}

// Pipeline sends chunks to the model one at a time.
type Pipeline struct {
	Encoder tokens.Encoder
	LLM     llm.Client
	Options chunker.Options
	Retry   retry.Policy
	Log     *slog.Logger
}

// Run chunks text, extracts fields from every chunk and merges them. A
// single chunk's extraction is returned as final without a synthesis call.
// Chunks over the token budget are submitted anyway and listed in
// Result.Oversize.
func (p Pipeline) Run(ctx context.Context, text string) (Result, error) {
	res := Result{RunID: uuid.New()}
	log := p.logger().With("run_id", res.RunID)

	chunks, err := chunker.Split(text, p.Options, p.Encoder)
	var tooLarge *chunker.TooLargeError
	switch {
	case errors.As(err, &tooLarge):
		res.Oversize = tooLarge.Indexes
		log.Warn("oversize chunks submitted as-is", "indexes", tooLarge.Indexes, "max_tokens", tooLarge.MaxTokens)
	case err != nil:
		return res, fmt.Errorf("chunk text: %w", err)
	}
	if len(chunks) == 0 {
		return res, ErrEmptyText
	}
	res.Chunks = chunks
	log.Info("text chunked", "chunks", len(chunks))

	for _, c := range chunks {
		var ex llm.Extraction
		err := retry.Do(ctx, p.Retry, func(ctx context.Context) error {
			var err error
			ex, err = p.LLM.Extract(ctx, c.Text)
			return err
		})
		if err != nil {
			return res, fmt.Errorf("extract chunk %d: %w", c.Index, err)
		}
		log.Debug("chunk extracted", "index", c.Index, "tokens", c.TokenCount)
		res.Partials = append(res.Partials, ex)
	}

	if len(res.Partials) == 1 {
		res.Final = res.Partials[0]
		return res, nil
	}
	err = retry.Do(ctx, p.Retry, func(ctx context.Context) error {
		var err error
		res.Final, err = p.LLM.Synthesize(ctx, res.Partials)
		return err
	})
	if err != nil {
		return res, fmt.Errorf("synthesize %d extractions: %w", len(res.Partials), err)
	}
	log.Info("extractions synthesized", "partials", len(res.Partials))
	return res, nil
}

func (p Pipeline) logger() *slog.Logger {
	if p.Log == nil {
		return slog.Default()
	}
	return p.Log
}
