package nlu

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when the configuration leaves the
// model unset.
const DefaultModel = "gemini-2.0-flash"

// GeminiOracle asks Gemini to classify a message. Credentials come from the
// environment (GEMINI_API_KEY or application default credentials), resolved
// by the genai client itself.
type GeminiOracle struct {
	model string
}

func NewGeminiOracle(model string) *GeminiOracle {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiOracle{model: model}
}

// Extract implements Oracle.
func (g *GeminiOracle) Extract(ctx context.Context, message string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("Extract: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: systemPrompt},
				{Text: "Message: " + message},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Extract: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Extract: empty response from model")
	}
	return text, nil
}
