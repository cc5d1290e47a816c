package capture

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/vango-go/vai-coach/pkg/core"
)

// ffmpegArgs returns the ffmpeg command line that writes mono 32-bit float
// samples at sampleRate to stdout from the platform's default microphone.
func ffmpegArgs(goos string, sampleRate int) ([]string, error) {
	var input []string
	switch goos {
	case "darwin":
		input = []string{"-f", "avfoundation", "-i", ":0"}
	case "linux":
		input = []string{"-f", "pulse", "-i", "default"}
	default:
		return nil, fmt.Errorf("ffmpeg mic capture is not implemented for %s; supported platforms: darwin, linux", goos)
	}
	args := []string{"-hide_banner", "-loglevel", "error"}
	args = append(args, input...)
	return append(args,
		"-ac", "1", "-ar", strconv.Itoa(sampleRate),
		"-f", "f32le", "-",
	), nil
}

// FFmpegOpener captures the default microphone through an ffmpeg child
// process. path defaults to "ffmpeg".
func FFmpegOpener(path string) Opener {
	if path == "" {
		path = "ffmpeg"
	}
	return func(ctx context.Context, sampleRate int) (Device, error) {
		if _, err := exec.LookPath(path); err != nil {
			return nil, core.NewDeviceUnavailableError("ffmpeg is required for mic capture (install ffmpeg and ensure it is in PATH)", err)
		}
		args, err := ffmpegArgs(runtime.GOOS, sampleRate)
		if err != nil {
			return nil, core.NewDeviceUnavailableError("unsupported platform", err)
		}
		cmd := exec.Command(path, args...)
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, core.NewDeviceUnavailableError("open ffmpeg stdout", err)
		}
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Start(); err != nil {
			return nil, core.NewDeviceUnavailableError("start ffmpeg mic capture", err)
		}
		return &ffmpegDevice{
			r:    stdout,
			kill: func() { _ = cmd.Process.Kill() },
			wait: func() error {
				err := cmd.Wait()
				if err != nil {
					if msg := lastLine(stderr.String()); msg != "" {
						return fmt.Errorf("%w: %s", err, msg)
					}
				}
				return err
			},
		}, nil
	}
}

type ffmpegDevice struct {
	r    io.Reader
	kill func()
	wait func() error

	waitOnce  sync.Once
	waitErr   error
	closeOnce sync.Once
}

// Stream reads frames until ffmpeg stops writing. An exit the caller did not
// ask for, such as a denied microphone, is a device_unavailable error.
func (d *ffmpegDevice) Stream(ctx context.Context, frameSize int, onFrame func([]float32)) error {
	if err := readFrames(ctx, d.r, frameSize, onFrame); err != nil {
		return core.NewDeviceUnavailableError("read ffmpeg mic output", err)
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := d.waitExit(); err != nil {
		return core.NewDeviceUnavailableError("ffmpeg mic capture exited", err)
	}
	return core.NewDeviceUnavailableError("ffmpeg mic capture ended unexpectedly", nil)
}

func (d *ffmpegDevice) waitExit() error {
	d.waitOnce.Do(func() {
		if d.wait != nil {
			d.waitErr = d.wait()
		}
	})
	return d.waitErr
}

func (d *ffmpegDevice) Close() error {
	d.closeOnce.Do(func() {
		if d.kill != nil {
			d.kill()
		}
		_ = d.waitExit()
	})
	return nil
}

// lastLine returns the final non-empty line of ffmpeg's log output.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// readFrames decodes little-endian float32 samples from r into frames of
// frameSize. A trailing partial frame is discarded.
func readFrames(ctx context.Context, r io.Reader, frameSize int, onFrame func([]float32)) error {
	br := bufio.NewReaderSize(r, frameSize*4)
	buf := make([]byte, frameSize*4)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := io.ReadFull(br, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		frame := make([]float32, frameSize)
		for i := range frame {
			frame[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		onFrame(frame)
	}
}
