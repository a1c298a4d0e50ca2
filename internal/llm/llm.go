package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrExternalService wraps every failure of the inference service, including
// responses that cannot be decoded into an Extraction.
var ErrExternalService = errors.New("external service error")

// Client extracts structured fields from article text.
type Client interface {
	// Extract pulls aim, method, findings and conclusion from one chunk.
	Extract(ctx context.Context, chunk string) (Extraction, error)
	// Synthesize merges partial extractions into one consistent record.
	Synthesize(ctx context.Context, partials []Extraction) (Extraction, error)
}

// Extraction is the structured record returned by the model. Fields the text
// does not cover are left empty, but at least one must be present.
type Extraction struct {
	Aim        string `json:"aim" validate:"required_without_all=Method Findings Conclusion"`
	Method     string `json:"method"`
	Findings   string `json:"findings"`
	Conclusion string `json:"conclusion"`
}

var validate = validator.New()

// Validate checks the record before it is used downstream.
func (e Extraction) Validate() error {
	return validate.Struct(e)
}

// decodeExtraction parses and validates model output. Markdown code fences
// around the JSON are tolerated.
func decodeExtraction(text string) (Extraction, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	var ex Extraction
	if err := json.Unmarshal([]byte(text), &ex); err != nil {
		return Extraction{}, fmt.Errorf("%w: malformed extraction: %v", ErrExternalService, err)
	}
	ex.Aim = strings.TrimSpace(ex.Aim)
	ex.Method = strings.TrimSpace(ex.Method)
	ex.Findings = strings.TrimSpace(ex.Findings)
	ex.Conclusion = strings.TrimSpace(ex.Conclusion)
	if err := ex.Validate(); err != nil {
		return Extraction{}, fmt.Errorf("%w: empty extraction: %v", ErrExternalService, err)
	}
	return ex, nil
}
