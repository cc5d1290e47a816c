package playback

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"sync"

	"github.com/vango-go/vai-coach/pkg/core"
)

// FFPlayConfig configures an FFPlaySink.
type FFPlayConfig struct {
	Path       string
	SampleRate int
	Channels   int
	LogLevel   string
	Volume     int
}

func (c FFPlayConfig) withDefaults() FFPlayConfig {
	if c.Path == "" {
		c.Path = "ffplay"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 24000
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "error"
	}
	if c.Volume <= 0 {
		c.Volume = 80
	}
	return c
}

// ffplayArgs builds the command line for raw s16le playback from stdin.
func ffplayArgs(cfg FFPlayConfig) []string {
	// ffplay does not accept ffmpeg-style -ac; it wants a channel layout.
	layout := "mono"
	if cfg.Channels == 2 {
		layout = "stereo"
	}
	return []string{
		"-hide_banner",
		"-loglevel", cfg.LogLevel,
		"-nostats",
		"-volume", strconv.Itoa(cfg.Volume),
		"-nodisp",
		"-f", "s16le",
		"-ch_layout", layout,
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-i", "-",
	}
}

// FFPlaySink pipes PCM into an ffplay child process. Reset kills the process
// so anything it buffered is dropped, and the next Write starts a new one.
type FFPlaySink struct {
	cfg FFPlayConfig

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewFFPlaySink checks that ffplay is installed and starts it.
func NewFFPlaySink(cfg FFPlayConfig) (*FFPlaySink, error) {
	cfg = cfg.withDefaults()
	if _, err := exec.LookPath(cfg.Path); err != nil {
		return nil, core.NewDeviceUnavailableError("ffplay not found", err)
	}
	s := &FFPlaySink{cfg: cfg}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.startLocked(); err != nil {
		return nil, core.NewDeviceUnavailableError("start ffplay", err)
	}
	return s, nil
}

func (s *FFPlaySink) startLocked() error {
	if s.cmd != nil && s.cmd.Process != nil {
		return nil
	}
	cmd := exec.Command(s.cfg.Path, ffplayArgs(s.cfg)...)
	if runtime.GOOS == "darwin" && os.Getenv("SDL_AUDIODRIVER") == "" {
		// SDL can otherwise pick a dummy backend with no sound.
		cmd.Env = append(os.Environ(), "SDL_AUDIODRIVER=coreaudio")
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	cmd.Stdout = io.Discard
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return err
	}
	s.cmd = cmd
	s.stdin = stdin
	go func(c *exec.Cmd) {
		_ = c.Wait()
		s.mu.Lock()
		if s.cmd == c {
			s.cmd = nil
			s.stdin = nil
		}
		s.mu.Unlock()
	}(cmd)
	return nil
}

// Write sends PCM to ffplay, restarting it if it exited.
func (s *FFPlaySink) Write(pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	s.mu.Lock()
	if err := s.startLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	stdin := s.stdin
	s.mu.Unlock()
	if stdin == nil {
		return errors.New("ffplay is not running")
	}
	_, err := stdin.Write(pcm)
	return err
}

// Reset discards queued audio by stopping the player.
func (s *FFPlaySink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

// Close stops the player.
func (s *FFPlaySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *FFPlaySink) closeLocked() error {
	if s.stdin != nil {
		_ = s.stdin.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	s.cmd = nil
	s.stdin = nil
	return nil
}

// DiscardSink drops all audio. Used with --no-speaker and in tests.
type DiscardSink struct{}

func (DiscardSink) Write([]byte) error { return nil }
func (DiscardSink) Reset() error       { return nil }
func (DiscardSink) Close() error       { return nil }
