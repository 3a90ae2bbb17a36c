package oracle

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

// ErrMissingCredential marks a configuration failure: no API key reachable.
var ErrMissingCredential = errors.New("missing GEMINI_API_KEY / GOOGLE_API_KEY")

// CompletionClient abstracts the oracle transport so the adapter can be
// tested without a live model.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiClient calls Gemini with deterministic generation settings:
// temperature zero and a bounded output size.
type GeminiClient struct {
	model string
}

func NewGeminiClient(model string) *GeminiClient {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiClient{model: model}
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
		return "", ErrMissingCredential
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		MaxOutputTokens: 2048,
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}
