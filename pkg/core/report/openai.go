package report

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when OpenAIGenerator.Model is empty.
const DefaultOpenAIModel = openai.GPT4o

// OpenAIGenerator generates report text with the OpenAI chat API.
type OpenAIGenerator struct {
	Client *openai.Client
	Model  string
}

// NewOpenAIGenerator creates a generator for apiKey.
func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	return &OpenAIGenerator{Client: openai.NewClient(apiKey), Model: model}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if g == nil || g.Client == nil {
		return "", errors.New("openai generator is not initialized")
	}
	model := strings.TrimSpace(g.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}
	var messages []openai.ChatCompletionMessage
	if strings.TrimSpace(system) != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := g.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New("openai returned no text")
	}
	return resp.Choices[0].Message.Content, nil
}
