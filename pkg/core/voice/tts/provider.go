// Package tts provides text-to-speech functionality.
package tts

import (
	"context"
	"time"
)

// Provider is the interface for text-to-speech services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error)
}

// SynthesizeOptions configures synthesis.
type SynthesizeOptions struct {
	Voice string // Prebuilt voice name
	Model string // Provider model override
}

// Synthesis is the result of synthesis. Audio is little-endian signed 16-bit
// mono PCM.
type Synthesis struct {
	Audio      []byte
	Format     string // Always "pcm"
	SampleRate int
}

// Duration returns the playback length of the audio.
func (s *Synthesis) Duration() time.Duration {
	if s == nil || s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(s.Audio)/2) * time.Second / time.Duration(s.SampleRate)
}
