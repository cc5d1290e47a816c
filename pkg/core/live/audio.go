package live

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vango-go/vai-coach/pkg/core"
)

const (
	// InputSampleRate is the microphone capture rate sent to the model.
	InputSampleRate = 16000
	// OutputSampleRate is the rate of synthesized speech from the model.
	OutputSampleRate = 24000

	bytesPerSample = 2
)

// EncodedChunk is the transport form of an audio frame: base64 of
// little-endian signed 16-bit samples plus a MIME tag naming the rate.
type EncodedChunk struct {
	Data     string `json:"data"`
	MIMEType string `json:"mimeType"`
}

// MIMEType returns the transport tag for 16-bit PCM at rate.
func MIMEType(rate int) string {
	return "audio/pcm;rate=" + strconv.Itoa(rate)
}

// ParseRate extracts the rate parameter from a MIME tag such as
// "audio/pcm;rate=24000".
func ParseRate(mime string) (int, bool) {
	for _, param := range strings.Split(mime, ";")[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "rate") {
			continue
		}
		rate, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || rate <= 0 {
			return 0, false
		}
		return rate, true
	}
	return 0, false
}

// Frame is a decoded run of interleaved signed 16-bit samples.
type Frame struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Duration returns the playback length of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	perChannel := len(f.Samples) / f.Channels
	return time.Duration(perChannel) * time.Second / time.Duration(f.SampleRate)
}

// Float32 returns the samples normalized to [-1, 1).
func (f Frame) Float32() []float32 {
	out := make([]float32, len(f.Samples))
	for i, s := range f.Samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// PCM returns the samples as little-endian bytes.
func (f Frame) PCM() []byte {
	out := make([]byte, len(f.Samples)*bytesPerSample)
	for i, s := range f.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// EncodeOutbound scales float samples to 16-bit integers and packs them for
// transport. Values are truncated toward zero and out-of-range input wraps
// (1.0 becomes -32768), matching a typed-array conversion.
func EncodeOutbound(samples []float32, sampleRate int) EncodedChunk {
	pcm := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(scaleSample(s)))
	}
	return PCMChunk(pcm, sampleRate)
}

func scaleSample(s float32) int16 {
	v := float64(s) * 32768
	if math.IsNaN(v) {
		return 0
	}
	// Keep the int32 conversion in range so the int16 truncation below is
	// the defined two's-complement wrap.
	v = math.Max(math.Min(v, math.MaxInt32), math.MinInt32)
	return int16(int32(v))
}

// PCMChunk wraps raw little-endian 16-bit PCM as an EncodedChunk.
func PCMChunk(pcm []byte, sampleRate int) EncodedChunk {
	return EncodedChunk{
		Data:     base64.StdEncoding.EncodeToString(pcm),
		MIMEType: MIMEType(sampleRate),
	}
}

// DecodeInbound turns a transport chunk back into a playable frame at
// targetRate with the given channel count.
func DecodeInbound(chunk EncodedChunk, targetRate, channels int) (Frame, error) {
	if targetRate <= 0 {
		return Frame{}, core.NewDecodeError(fmt.Sprintf("invalid target rate %d", targetRate), nil)
	}
	if channels <= 0 {
		return Frame{}, core.NewDecodeError(fmt.Sprintf("invalid channel count %d", channels), nil)
	}
	raw, err := base64.StdEncoding.DecodeString(chunk.Data)
	if err != nil {
		return Frame{}, core.NewDecodeError("decode base64 audio", err)
	}
	if len(raw)%bytesPerSample != 0 {
		return Frame{}, core.NewDecodeError(fmt.Sprintf("audio length %d is not a multiple of %d", len(raw), bytesPerSample), nil)
	}
	count := len(raw) / bytesPerSample
	if count%channels != 0 {
		return Frame{}, core.NewDecodeError(fmt.Sprintf("%d samples do not divide into %d channels", count, channels), nil)
	}
	samples := make([]int16, count)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return Frame{
		Samples:    samples,
		SampleRate: targetRate,
		Channels:   channels,
	}, nil
}

// CalculateRMSEnergy computes the root-mean-square energy of float samples.
// Returns a value between 0.0 and 1.0 for in-range input.
func CalculateRMSEnergy(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}

	return math.Sqrt(sum / float64(len(samples)))
}
