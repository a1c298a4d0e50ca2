package tokens

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultModel is the model whose encoding is used when none is given.
const DefaultModel = "gpt-4"

// ErrEncodingFailure is returned when the tokenizer cannot be loaded or
// produces an unusable count.
var ErrEncodingFailure = errors.New("token encoding failed")

// Encoder measures how many tokens a string occupies under one encoding.
// Implementations must be deterministic for a given input.
type Encoder interface {
	Count(text string) (int, error)
}

// Tiktoken counts tokens with the BPE encoding of an OpenAI model.
type Tiktoken struct {
	model string
	tke   *tiktoken.Tiktoken
}

// NewTiktoken loads the encoding used by model (for example "gpt-4"). An
// encoding name such as "cl100k_base" is accepted as well.
func NewTiktoken(model string) (*Tiktoken, error) {
	if model == "" {
		model = DefaultModel
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		var encErr error
		if tke, encErr = tiktoken.GetEncoding(model); encErr != nil {
			return nil, fmt.Errorf("%w: load encoding for model %q: %v", ErrEncodingFailure, model, err)
		}
	}
	return &Tiktoken{model: model, tke: tke}, nil
}

// Model reports the model the counter was built for.
func (t *Tiktoken) Model() string {
	return t.model
}

func (t *Tiktoken) Count(text string) (int, error) {
	if t == nil || t.tke == nil {
		return 0, fmt.Errorf("%w: nil tokenizer", ErrEncodingFailure)
	}
	return len(t.tke.Encode(text, nil, nil)), nil
}

// CountTokens returns the number of tokens text occupies under model's encoding.
func CountTokens(text, model string) (int, error) {
	enc, err := NewTiktoken(model)
	if err != nil {
		return 0, err
	}
	return enc.Count(text)
}

// WordCounter treats every whitespace-delimited word as one token.
type WordCounter struct{}

func (WordCounter) Count(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

// Measure calls enc and rejects counts no tokenizer could produce.
func Measure(enc Encoder, text string) (int, error) {
	if enc == nil {
		return 0, fmt.Errorf("%w: no encoder configured", ErrEncodingFailure)
	}
	n, err := enc.Count(text)
	if err != nil {
		if errors.Is(err, ErrEncodingFailure) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative token count %d", ErrEncodingFailure, n)
	}
	return n, nil
}
