package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vango-go/vai-coach/pkg/core/providers/geminilive"
	"github.com/vango-go/vai-coach/pkg/core/report"
	"github.com/vango-go/vai-coach/pkg/core/voice/tts"
)

type ReportProvider string

const (
	ReportProviderGemini ReportProvider = "gemini"
	ReportProviderOpenAI ReportProvider = "openai"
)

type MicBackend string

const (
	MicBackendFFmpeg    MicBackend = "ffmpeg"
	MicBackendPortAudio MicBackend = "portaudio"
)

type Config struct {
	GeminiAPIKey string
	OpenAIAPIKey string

	// Live session.
	LiveModel string
	LiveURL   string
	Voice     string

	// Greeting synthesis; disabled skips straight to connecting.
	TTSModel string
	Greeting bool

	ReportProvider ReportProvider
	ReportModel    string

	MicBackend MicBackend
	FFmpegPath string
	FFplayPath string
	NoSpeaker  bool

	WSWriteTimeout  time.Duration
	WSPingInterval  time.Duration
	ConnectTimeout  time.Duration
	AnalysisTimeout time.Duration

	LogLevel slog.Level
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are ignored and existing variables win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %q: %w", path, err)
		}
	}
	return nil
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		GeminiAPIKey:    envOr("GEMINI_API_KEY", ""),
		OpenAIAPIKey:    envOr("OPENAI_API_KEY", ""),
		LiveModel:       envOr("VAI_COACH_LIVE_MODEL", geminilive.DefaultModel),
		LiveURL:         envOr("VAI_COACH_LIVE_URL", geminilive.DefaultURL),
		Voice:           envOr("VAI_COACH_VOICE", geminilive.DefaultVoice),
		TTSModel:        envOr("VAI_COACH_TTS_MODEL", tts.DefaultGeminiModel),
		Greeting:        envBoolOr("VAI_COACH_GREETING", true),
		ReportProvider:  ReportProvider(strings.ToLower(envOr("VAI_COACH_REPORT_PROVIDER", string(ReportProviderGemini)))),
		ReportModel:     envOr("VAI_COACH_REPORT_MODEL", ""),
		MicBackend:      MicBackend(strings.ToLower(envOr("VAI_COACH_MIC_BACKEND", string(MicBackendFFmpeg)))),
		FFmpegPath:      envOr("VAI_COACH_FFMPEG_PATH", "ffmpeg"),
		FFplayPath:      envOr("VAI_COACH_FFPLAY_PATH", "ffplay"),
		NoSpeaker:       envBoolOr("VAI_COACH_NO_SPEAKER", false),
		WSWriteTimeout:  envDurationOr("VAI_COACH_WS_WRITE_TIMEOUT", 5*time.Second),
		WSPingInterval:  envDurationOr("VAI_COACH_WS_PING_INTERVAL", 20*time.Second),
		ConnectTimeout:  envDurationOr("VAI_COACH_CONNECT_TIMEOUT", 15*time.Second),
		AnalysisTimeout: envDurationOr("VAI_COACH_ANALYSIS_TIMEOUT", 2*time.Minute),
	}

	level, err := ParseLogLevel(envOr("VAI_COACH_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("VAI_COACH_LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if cfg.ReportModel == "" {
		cfg.ReportModel = cfg.ReportProvider.DefaultModel()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that may also be overridden by flags after loading.
func (c Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	switch c.ReportProvider {
	case ReportProviderGemini:
	case ReportProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when VAI_COACH_REPORT_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("VAI_COACH_REPORT_PROVIDER must be one of gemini|openai")
	}
	switch c.MicBackend {
	case MicBackendFFmpeg, MicBackendPortAudio:
	default:
		return fmt.Errorf("VAI_COACH_MIC_BACKEND must be one of ffmpeg|portaudio")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("VAI_COACH_CONNECT_TIMEOUT must be > 0")
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("VAI_COACH_ANALYSIS_TIMEOUT must be > 0")
	}
	if c.WSWriteTimeout < 0 {
		return fmt.Errorf("VAI_COACH_WS_WRITE_TIMEOUT must be >= 0")
	}
	if c.WSPingInterval < 0 {
		return fmt.Errorf("VAI_COACH_WS_PING_INTERVAL must be >= 0")
	}
	return nil
}

// DefaultModel returns the report model used when none is configured.
func (p ReportProvider) DefaultModel() string {
	switch p {
	case ReportProviderOpenAI:
		return report.DefaultOpenAIModel
	default:
		return report.DefaultGeminiModel
	}
}

func ParseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", raw)
	}
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		if ms, convErr := strconv.Atoi(raw); convErr == nil {
			return time.Duration(ms) * time.Millisecond
		}
		return def
	}
	return d
}
