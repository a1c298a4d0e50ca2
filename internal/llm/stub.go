package llm

import (
	"context"
	"fmt"
	"strings"
)

// StubClient answers without calling a model. The aim is the first words of
// the chunk; synthesis keeps the first non-empty value of every field.
type StubClient struct {
	Words int
}

func (s StubClient) Extract(_ context.Context, chunk string) (Extraction, error) {
	n := s.Words
	if n <= 0 {
		n = 25
	}
	words := strings.Fields(chunk)
	if len(words) == 0 {
		return Extraction{}, fmt.Errorf("%w: stub: empty chunk", ErrExternalService)
	}
	return Extraction{Aim: strings.Join(words[:min(n, len(words))], " ")}, nil
}

func (StubClient) Synthesize(_ context.Context, partials []Extraction) (Extraction, error) {
	var out Extraction
	for _, p := range partials {
		out.Aim = firstNonEmpty(out.Aim, p.Aim)
		out.Method = firstNonEmpty(out.Method, p.Method)
		out.Findings = firstNonEmpty(out.Findings, p.Findings)
		out.Conclusion = firstNonEmpty(out.Conclusion, p.Conclusion)
	}
	if err := out.Validate(); err != nil {
		return Extraction{}, fmt.Errorf("%w: stub: nothing to synthesize", ErrExternalService)
	}
	return out, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
