//go:build !portaudio

package capture

import (
	"context"
	"errors"

	"github.com/vango-go/vai-coach/pkg/core"
)

// PortAudioOpener reports that this binary was built without PortAudio.
func PortAudioOpener() Opener {
	return func(context.Context, int) (Device, error) {
		return nil, core.NewDeviceUnavailableError("portaudio backend not compiled in", errors.New("rebuild with -tags portaudio"))
	}
}
