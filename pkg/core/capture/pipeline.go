// Package capture reads microphone audio in fixed-size frames and forwards
// each frame, encoded, to a live session.
package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vango-go/vai-coach/pkg/core"
	"github.com/vango-go/vai-coach/pkg/core/live"
)

// DefaultFrameSize is the number of samples per forwarded frame.
const DefaultFrameSize = 4096

// Device is an open mono input device.
type Device interface {
	// Stream delivers frames of frameSize samples to onFrame until ctx is
	// done or the device fails. onFrame runs on the device's goroutine.
	Stream(ctx context.Context, frameSize int, onFrame func([]float32)) error
	Close() error
}

// Opener acquires an input device at sampleRate.
type Opener func(ctx context.Context, sampleRate int) (Device, error)

// Sender accepts encoded frames. A live session satisfies it.
type Sender interface {
	Send(chunk live.EncodedChunk) error
}

// Options configures Start.
type Options struct {
	SampleRate int
	FrameSize  int
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = live.InputSampleRate
	}
	if o.FrameSize <= 0 {
		o.FrameSize = DefaultFrameSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// levelLogEvery is how often, in frames, the input level is logged at debug.
const levelLogEvery = 20

// Handle is a running capture pipeline.
type Handle struct {
	device Device
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	errMu sync.Mutex
	err   error
}

// Start opens the device and forwards every frame to sender. Send errors are
// logged and otherwise ignored. A failure to open the device is returned as a
// device_unavailable error.
func Start(ctx context.Context, open Opener, sender Sender, opts Options) (*Handle, error) {
	if open == nil {
		return nil, core.NewDeviceUnavailableError("no capture device configured", nil)
	}
	if sender == nil {
		return nil, errors.New("capture: sender is required")
	}
	opts = opts.withDefaults()

	device, err := open(ctx, opts.SampleRate)
	if err != nil {
		if core.IsType(err, core.ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, core.NewDeviceUnavailableError("open microphone", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		device: device,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	logger := opts.Logger
	rate := opts.SampleRate

	go func() {
		defer close(h.done)
		frames := 0
		err := device.Stream(runCtx, opts.FrameSize, func(samples []float32) {
			if runCtx.Err() != nil {
				return
			}
			frames++
			if frames%levelLogEvery == 0 && logger.Enabled(runCtx, slog.LevelDebug) {
				logger.Debug("microphone level", "frames", frames, "rms", live.CalculateRMSEnergy(samples))
			}
			if err := sender.Send(live.EncodeOutbound(samples, rate)); err != nil {
				logger.Debug("dropped microphone frame", "error", err)
			}
		})
		if err != nil && runCtx.Err() == nil {
			if !core.IsType(err, core.ErrDeviceUnavailable) {
				err = core.NewDeviceUnavailableError("microphone stream failed", err)
			}
			logger.Warn("microphone stream ended", "error", err)
			h.errMu.Lock()
			h.err = err
			h.errMu.Unlock()
		}
	}()
	return h, nil
}

// Stop cancels capture, closes the device and waits for the stream to end.
// Calling it more than once is a no-op.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.cancel()
		_ = h.device.Close()
		<-h.done
	})
}

// Done is closed when the stream goroutine exits, either after Stop or
// because the device failed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the device_unavailable error that ended the stream early, or
// nil if the stream is running or was stopped.
func (h *Handle) Err() error {
	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.err
}
