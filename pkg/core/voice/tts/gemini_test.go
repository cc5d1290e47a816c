package tts

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/genai"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
	text   string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.text = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func audioResponse(mime string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: mime, Data: data}},
			}},
		}},
	}
}

func TestGemini_SynthesizeRequestsVoiceAndAudio(t *testing.T) {
	fake := &fakeModels{resp: audioResponse("audio/L16;codec=pcm;rate=24000", make([]byte, 48000))}
	g := newGemini(fake, "", "")

	syn, err := g.Synthesize(context.Background(), "Hello!", SynthesizeOptions{})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if fake.model != DefaultGeminiModel {
		t.Fatalf("model = %q", fake.model)
	}
	if fake.text != "Hello!" {
		t.Fatalf("text = %q", fake.text)
	}
	if got := fake.config.ResponseModalities; len(got) != 1 || got[0] != "AUDIO" {
		t.Fatalf("ResponseModalities = %v", got)
	}
	if v := fake.config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; v != DefaultGeminiVoice {
		t.Fatalf("voice = %q", v)
	}
	if syn.SampleRate != 24000 || syn.Format != "pcm" {
		t.Fatalf("syn = %+v", syn)
	}
	if syn.Duration() != time.Second {
		t.Fatalf("Duration = %v, want 1s", syn.Duration())
	}
}

func TestGemini_SynthesizeOptionsOverride(t *testing.T) {
	fake := &fakeModels{resp: audioResponse("audio/pcm", []byte{1, 0})}
	g := newGemini(fake, "m1", "Puck")

	syn, err := g.Synthesize(context.Background(), "hi", SynthesizeOptions{Voice: "Kore", Model: "m2"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if fake.model != "m2" {
		t.Fatalf("model = %q, want m2", fake.model)
	}
	if v := fake.config.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; v != "Kore" {
		t.Fatalf("voice = %q, want Kore", v)
	}
	if syn.SampleRate != 24000 {
		t.Fatalf("SampleRate = %d, want default 24000", syn.SampleRate)
	}
}

func TestGemini_SynthesizeErrors(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeModels
		text string
	}{
		{name: "empty text", fake: &fakeModels{}, text: "  "},
		{name: "api error", fake: &fakeModels{err: errors.New("quota")}, text: "hi"},
		{name: "no candidates", fake: &fakeModels{resp: &genai.GenerateContentResponse{}}, text: "hi"},
		{name: "no audio", fake: &fakeModels{resp: audioResponse("audio/pcm", nil)}, text: "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGemini(tt.fake, "", "")
			if _, err := g.Synthesize(context.Background(), tt.text, SynthesizeOptions{}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
