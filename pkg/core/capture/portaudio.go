//go:build portaudio

package capture

import (
	"context"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/vango-go/vai-coach/pkg/core"
)

// PortAudioOpener captures the default input device through PortAudio.
// Build with -tags portaudio; it needs the PortAudio C library.
func PortAudioOpener() Opener {
	return func(ctx context.Context, sampleRate int) (Device, error) {
		if err := portaudio.Initialize(); err != nil {
			return nil, core.NewDeviceUnavailableError("initialize portaudio", err)
		}
		return &portAudioDevice{sampleRate: sampleRate}, nil
	}
}

type portAudioDevice struct {
	sampleRate int

	mu        sync.Mutex
	stream    *portaudio.Stream
	closeOnce sync.Once
}

func (d *portAudioDevice) Stream(ctx context.Context, frameSize int, onFrame func([]float32)) error {
	frames := make(chan []float32, 8)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(d.sampleRate), frameSize, func(in []float32) {
		frame := make([]float32, len(in))
		copy(frame, in)
		select {
		case frames <- frame:
		default:
			// Consumer fell behind; the audio callback must not block.
		}
	})
	if err != nil {
		return core.NewDeviceUnavailableError("open default input stream", err)
	}
	d.mu.Lock()
	d.stream = stream
	d.mu.Unlock()
	if err := stream.Start(); err != nil {
		return core.NewDeviceUnavailableError("start input stream", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-frames:
			onFrame(frame)
		}
	}
}

func (d *portAudioDevice) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		stream := d.stream
		d.mu.Unlock()
		if stream != nil {
			_ = stream.Stop()
			_ = stream.Close()
		}
		_ = portaudio.Terminate()
	})
	return nil
}
