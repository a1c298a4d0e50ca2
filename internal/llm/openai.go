package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

// DefaultModel is used when no model is configured.
const DefaultModel openai.ChatModel = "gpt-4.1"

const defaultResponseTimeout = 120 * time.Second

const extractPrompt = "From the following text, extract the aim, method, findings, and conclusion (if any). Output as JSON: "

const synthesisPrompt = `You are provided with several JSON objects containing partial extractions from different sections of a paper.
Combine them into a single consistent JSON with four fields: aim, method, findings, and conclusion. Resolve any duplication or inconsistency.

Data:
`

var extractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"aim":        map[string]any{"type": "string"},
		"method":     map[string]any{"type": "string"},
		"findings":   map[string]any{"type": "string"},
		"conclusion": map[string]any{"type": "string"},
	},
	"required":             []string{"aim", "method", "findings", "conclusion"},
	"additionalProperties": false,
}

// OpenAIClient calls the OpenAI Responses API with a JSON schema so every
// reply decodes into an Extraction.
type OpenAIClient struct {
	model  openai.ChatModel
	client *openai.Client
}

// NewOpenAIClient builds a client against api.openai.com. Extra request
// options are passed to the SDK, e.g. a base URL or retry count.
func NewOpenAIClient(apiKey string, model openai.ChatModel, opts ...option.RequestOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = DefaultModel
	}
	cli := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIClient{
		model:  model,
		client: &cli,
	}, nil
}

func (c *OpenAIClient) Extract(ctx context.Context, chunk string) (Extraction, error) {
	return c.respond(ctx, extractPrompt+chunk)
}

func (c *OpenAIClient) Synthesize(ctx context.Context, partials []Extraction) (Extraction, error) {
	if len(partials) == 0 {
		return Extraction{}, fmt.Errorf("no extractions to synthesize")
	}
	data, err := json.MarshalIndent(partials, "", "  ")
	if err != nil {
		return Extraction{}, err
	}
	return c.respond(ctx, synthesisPrompt+string(data))
}

func (c *OpenAIClient) respond(ctx context.Context, prompt string) (Extraction, error) {
	if c == nil || c.client == nil {
		return Extraction{}, fmt.Errorf("nil openai client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultResponseTimeout)
	defer cancel()

	resp, err := c.client.Responses.New(reqCtx, responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema("extraction", extractionSchema),
		},
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("%w: openai: %v", ErrExternalService, err)
	}
	out := resp.OutputText()
	if out == "" {
		return Extraction{}, fmt.Errorf("%w: openai: empty response", ErrExternalService)
	}
	return decodeExtraction(out)
}
