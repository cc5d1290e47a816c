package live

import (
	"encoding/base64"
	"math"
	"testing"
	"time"

	"github.com/vango-go/vai-coach/pkg/core"
)

func TestEncodeOutbound_MIMEAndLayout(t *testing.T) {
	chunk := EncodeOutbound([]float32{0, 0.5, -0.5, -1}, InputSampleRate)

	if chunk.MIMEType != "audio/pcm;rate=16000" {
		t.Fatalf("MIMEType=%q, want %q", chunk.MIMEType, "audio/pcm;rate=16000")
	}
	raw, err := base64.StdEncoding.DecodeString(chunk.Data)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	want := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0xC0, 0x00, 0x80}
	if string(raw) != string(want) {
		t.Fatalf("raw=%v, want %v", raw, want)
	}
}

func TestEncodeOutbound_WrapsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		sample float32
		want   int16
	}{
		{"full scale positive wraps", 1.0, -32768},
		{"just below full scale", 32767.0 / 32768.0, 32767},
		{"full scale negative", -1.0, -32768},
		{"over range wraps", 1.5, -16384},
		{"truncates toward zero", 0.00002, 0},
		{"nan is silence", float32(math.NaN()), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := DecodeInbound(EncodeOutbound([]float32{tt.sample}, InputSampleRate), InputSampleRate, 1)
			if err != nil {
				t.Fatalf("DecodeInbound error: %v", err)
			}
			if got := frame.Samples[0]; got != tt.want {
				t.Fatalf("sample=%d, want %d", got, tt.want)
			}
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	samples := make([]float32, 0, 2001)
	for i := -1000; i <= 1000; i++ {
		// [-1, 1): the closed upper bound wraps and is covered above.
		samples = append(samples, float32(i)/1000*0.99999)
	}
	samples = append(samples, -1)

	frame, err := DecodeInbound(EncodeOutbound(samples, OutputSampleRate), OutputSampleRate, 1)
	if err != nil {
		t.Fatalf("DecodeInbound error: %v", err)
	}
	got := frame.Float32()
	if len(got) != len(samples) {
		t.Fatalf("len=%d, want %d", len(got), len(samples))
	}
	const quantum = 1.0 / 32768.0
	for i := range samples {
		if diff := math.Abs(float64(got[i] - samples[i])); diff > quantum {
			t.Fatalf("sample %d: got %f want %f (diff %g)", i, got[i], samples[i], diff)
		}
	}
}

func TestDecodeInbound_Errors(t *testing.T) {
	tests := []struct {
		name     string
		chunk    EncodedChunk
		rate     int
		channels int
	}{
		{"bad base64", EncodedChunk{Data: "!!!"}, OutputSampleRate, 1},
		{"odd length", EncodedChunk{Data: base64.StdEncoding.EncodeToString([]byte{1, 2, 3})}, OutputSampleRate, 1},
		{"channel mismatch", EncodedChunk{Data: base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4, 5, 6})}, OutputSampleRate, 2},
		{"zero rate", PCMChunk([]byte{0, 0}, OutputSampleRate), 0, 1},
		{"zero channels", PCMChunk([]byte{0, 0}, OutputSampleRate), OutputSampleRate, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInbound(tt.chunk, tt.rate, tt.channels)
			if !core.IsType(err, core.ErrDecode) {
				t.Fatalf("err=%v, want decode_error", err)
			}
		})
	}
}

func TestFrame_Duration(t *testing.T) {
	frame := Frame{Samples: make([]int16, 2400), SampleRate: OutputSampleRate, Channels: 1}
	if got := frame.Duration(); got != 100*time.Millisecond {
		t.Fatalf("Duration=%v, want 100ms", got)
	}

	stereo := Frame{Samples: make([]int16, 4800), SampleRate: OutputSampleRate, Channels: 2}
	if got := stereo.Duration(); got != 100*time.Millisecond {
		t.Fatalf("stereo Duration=%v, want 100ms", got)
	}

	if got := (Frame{}).Duration(); got != 0 {
		t.Fatalf("empty Duration=%v, want 0", got)
	}
}

func TestFrame_PCMMatchesChunk(t *testing.T) {
	chunk := EncodeOutbound([]float32{0.25, -0.25, 0.75}, OutputSampleRate)
	frame, err := DecodeInbound(chunk, OutputSampleRate, 1)
	if err != nil {
		t.Fatalf("DecodeInbound error: %v", err)
	}
	if got := base64.StdEncoding.EncodeToString(frame.PCM()); got != chunk.Data {
		t.Fatalf("PCM=%q, want %q", got, chunk.Data)
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		mime string
		rate int
		ok   bool
	}{
		{"audio/pcm;rate=24000", 24000, true},
		{"audio/pcm; rate=16000", 16000, true},
		{"audio/pcm;codec=s16le;RATE=8000", 8000, true},
		{"audio/pcm", 0, false},
		{"audio/pcm;rate=abc", 0, false},
		{"audio/pcm;rate=-1", 0, false},
	}

	for _, tt := range tests {
		rate, ok := ParseRate(tt.mime)
		if rate != tt.rate || ok != tt.ok {
			t.Errorf("ParseRate(%q)=(%d,%v), want (%d,%v)", tt.mime, rate, ok, tt.rate, tt.ok)
		}
	}
}

func TestCalculateRMSEnergy(t *testing.T) {
	tests := []struct {
		name     string
		samples  []float32
		expected float64
	}{
		{"empty", nil, 0},
		{"silence", []float32{0, 0, 0, 0}, 0},
		{"half amplitude", []float32{0.5, -0.5, 0.5, -0.5}, 0.5},
		{"full amplitude", []float32{1, 1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateRMSEnergy(tt.samples); math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("expected RMS %.3f, got %.3f", tt.expected, got)
			}
		})
	}
}
