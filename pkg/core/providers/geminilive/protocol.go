package geminilive

import (
	"strings"

	"github.com/vango-go/vai-coach/pkg/core/live"
)

// Outbound messages. Exactly one field of clientMessage is set.

type clientMessage struct {
	Setup         *setupMessage  `json:"setup,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
}

type setupMessage struct {
	Model                    string            `json:"model"`
	GenerationConfig         *generationConfig `json:"generationConfig,omitempty"`
	SystemInstruction        *content          `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}         `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}         `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type realtimeInput struct {
	Audio *live.EncodedChunk `json:"audio,omitempty"`
}

// Inbound messages.

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
	GoAway        *goAway        `json:"goAway,omitempty"`
}

type serverContent struct {
	ModelTurn           *content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}

type goAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

func newSetupMessage(cfg Config) clientMessage {
	model := cfg.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	setup := &setupMessage{
		Model: model,
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}
	if cfg.Voice != "" {
		setup.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: cfg.Voice}},
		}
	}
	if strings.TrimSpace(cfg.SystemInstruction) != "" {
		setup.SystemInstruction = &content{Parts: []part{{Text: cfg.SystemInstruction}}}
	}
	return clientMessage{Setup: setup}
}

func newAudioMessage(chunk live.EncodedChunk) clientMessage {
	return clientMessage{RealtimeInput: &realtimeInput{Audio: &chunk}}
}

// splitServerContent flattens one server message into events, in the order
// the reducer expects: interruption, user text, model text, audio, turn end.
func splitServerContent(sc *serverContent) []live.ServerEvent {
	if sc == nil {
		return nil
	}
	var events []live.ServerEvent
	if sc.Interrupted {
		events = append(events, live.InterruptedEvent{})
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		events = append(events, live.InterimTranscriptEvent{Speaker: live.SpeakerUser, Text: sc.InputTranscription.Text})
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		events = append(events, live.InterimTranscriptEvent{Speaker: live.SpeakerAI, Text: sc.OutputTranscription.Text})
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			if !strings.HasPrefix(p.InlineData.MIMEType, "audio/") {
				continue
			}
			events = append(events, live.AudioChunkEvent{Chunk: live.EncodedChunk{
				Data:     p.InlineData.Data,
				MIMEType: p.InlineData.MIMEType,
			}})
		}
	}
	if sc.TurnComplete {
		events = append(events, live.TurnCompleteEvent{})
	}
	return events
}
