package report

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when GeminiGenerator.Model is empty.
const DefaultGeminiModel = "gemini-2.5-pro"

// GeminiGenerator generates report text with the Gemini API.
type GeminiGenerator struct {
	Client *genai.Client
	Model  string
}

// NewGeminiGenerator creates a generator backed by the Gemini developer API.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{Client: client, Model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if g == nil || g.Client == nil {
		return "", errors.New("gemini generator is not initialized")
	}
	model := strings.TrimSpace(g.Model)
	if model == "" {
		model = DefaultGeminiModel
	}
	cfg := &genai.GenerateContentConfig{}
	if strings.TrimSpace(system) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	resp, err := g.Client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gemini returned no text")
	}
	return text, nil
}
