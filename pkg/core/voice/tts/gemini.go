package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/vango-go/vai-coach/pkg/core/live"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash-preview-tts"
	DefaultGeminiVoice = "Zephyr"
)

// contentGenerator is the slice of the genai Models service used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini synthesizes speech with a Gemini TTS model.
type Gemini struct {
	models contentGenerator
	model  string
	voice  string
}

// NewGemini creates a Gemini TTS provider. Empty model and voice use the
// defaults.
func NewGemini(ctx context.Context, apiKey, model, voice string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGemini(client.Models, model, voice), nil
}

func newGemini(models contentGenerator, model, voice string) *Gemini {
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	if strings.TrimSpace(voice) == "" {
		voice = DefaultGeminiVoice
	}
	return &Gemini{models: models, model: model, voice: voice}
}

func (g *Gemini) Name() string { return "gemini" }

// Synthesize returns the first inline audio part of the response.
func (g *Gemini) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("tts: empty text")
	}
	model := g.model
	if opts.Model != "" {
		model = opts.Model
	}
	voice := g.voice
	if opts.Voice != "" {
		voice = opts.Voice
	}

	resp, err := g.models.GenerateContent(ctx, model, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini tts: %w", err)
	}
	blob := firstInlineData(resp)
	if blob == nil || len(blob.Data) == 0 {
		return nil, errors.New("gemini tts: response contained no audio")
	}
	rate, ok := live.ParseRate(blob.MIMEType)
	if !ok {
		rate = live.OutputSampleRate
	}
	return &Synthesis{
		Audio:      blob.Data,
		Format:     "pcm",
		SampleRate: rate,
	}, nil
}

func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return nil
	}
	for _, p := range c.Content.Parts {
		if p != nil && p.InlineData != nil {
			return p.InlineData
		}
	}
	return nil
}
