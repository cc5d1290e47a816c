package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vango-go/vai-coach/internal/config"
	"github.com/vango-go/vai-coach/pkg/coach"
	"github.com/vango-go/vai-coach/pkg/core/capture"
	"github.com/vango-go/vai-coach/pkg/core/live"
	"github.com/vango-go/vai-coach/pkg/core/playback"
	"github.com/vango-go/vai-coach/pkg/core/providers/geminilive"
	"github.com/vango-go/vai-coach/pkg/core/report"
	"github.com/vango-go/vai-coach/pkg/core/voice/tts"
)

type options struct {
	envFile        string
	personaFile    string
	reportFile     string
	liveModel      string
	voice          string
	reportProvider string
	reportModel    string
	mic            string
	ffmpegPath     string
	ffplayPath     string
	logLevel       string
	noSpeaker      bool
	noGreeting     bool
	autoStart      bool
}

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func runMain(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opt, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	if err := config.LoadDotEnv(opt.envFile); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 2
	}
	if err := applyOverrides(&cfg, opt); err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 2
	}

	logger := setupLogger(cfg.LogLevel, stderr)
	slog.SetDefault(logger)

	persona := coach.Persona
	if opt.personaFile != "" {
		raw, err := os.ReadFile(opt.personaFile)
		if err != nil {
			fmt.Fprintln(stderr, "read persona file:", err)
			return 2
		}
		persona = string(raw)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, "startup:", err)
		return 1
	}
	defer cleanup()

	greeting := coach.Greeting
	if !cfg.Greeting {
		greeting = ""
	}
	ctrl := coach.New(deps, coach.Options{
		Persona:         persona,
		Greeting:        greeting,
		Voice:           cfg.Voice,
		ConnectTimeout:  cfg.ConnectTimeout,
		AnalysisTimeout: cfg.AnalysisTimeout,
		Logger:          logger,
	})
	defer ctrl.Close()

	r := newRenderer(stdout, opt.reportFile, logger)
	unsubscribe := ctrl.Subscribe(r.render)
	defer unsubscribe()

	fmt.Fprintln(stdout, "AI Career Coach")
	fmt.Fprintln(stdout, "Press Enter to start an interview, type \"stop\" to end it, \"quit\" to exit.")

	if opt.autoStart {
		ctrl.Start()
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			ctrl.Stop()
			return 0
		case line, ok := <-lines:
			if !ok {
				// stdin closed; keep running until interrupted.
				lines = nil
				continue
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "", "start", "restart":
				ctrl.Start()
			case "stop":
				ctrl.Stop()
			case "q", "quit", "exit":
				ctrl.Stop()
				return 0
			default:
				fmt.Fprintln(stdout, "commands: <enter>|start, stop, quit")
			}
		}
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opt options
	fs := flag.NewFlagSet("vai-coach", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opt.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	fs.StringVar(&opt.personaFile, "persona-file", "", "Replace the interview script with the contents of this file")
	fs.StringVar(&opt.reportFile, "report-file", "", "Write the final report as markdown to this path")
	fs.StringVar(&opt.liveModel, "live-model", "", "Live model id (overrides VAI_COACH_LIVE_MODEL)")
	fs.StringVar(&opt.voice, "voice", "", "Prebuilt voice name (overrides VAI_COACH_VOICE)")
	fs.StringVar(&opt.reportProvider, "report-provider", "", "Report backend: gemini or openai (overrides VAI_COACH_REPORT_PROVIDER)")
	fs.StringVar(&opt.reportModel, "report-model", "", "Report model id (overrides VAI_COACH_REPORT_MODEL)")
	fs.StringVar(&opt.mic, "mic", "", "Microphone backend: ffmpeg or portaudio (overrides VAI_COACH_MIC_BACKEND)")
	fs.StringVar(&opt.ffmpegPath, "ffmpeg-path", "", "Path to ffmpeg (overrides VAI_COACH_FFMPEG_PATH)")
	fs.StringVar(&opt.ffplayPath, "ffplay-path", "", "Path to ffplay (overrides VAI_COACH_FFPLAY_PATH)")
	fs.StringVar(&opt.logLevel, "log-level", "", "debug, info, warn or error (overrides VAI_COACH_LOG_LEVEL)")
	fs.BoolVar(&opt.noSpeaker, "no-speaker", false, "Do not spawn ffplay; audio is scheduled but discarded")
	fs.BoolVar(&opt.noGreeting, "no-greeting", false, "Skip the spoken greeting and connect immediately")
	fs.BoolVar(&opt.autoStart, "start", false, "Start the interview without waiting for Enter")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opt, nil
}

func applyOverrides(cfg *config.Config, opt options) error {
	if v := strings.TrimSpace(opt.liveModel); v != "" {
		cfg.LiveModel = v
	}
	if v := strings.TrimSpace(opt.voice); v != "" {
		cfg.Voice = v
	}
	if v := strings.TrimSpace(opt.reportProvider); v != "" {
		provider := config.ReportProvider(strings.ToLower(v))
		if provider != cfg.ReportProvider && strings.TrimSpace(opt.reportModel) == "" {
			cfg.ReportModel = provider.DefaultModel()
		}
		cfg.ReportProvider = provider
	}
	if v := strings.TrimSpace(opt.reportModel); v != "" {
		cfg.ReportModel = v
	}
	if v := strings.TrimSpace(opt.mic); v != "" {
		cfg.MicBackend = config.MicBackend(strings.ToLower(v))
	}
	if v := strings.TrimSpace(opt.ffmpegPath); v != "" {
		cfg.FFmpegPath = v
	}
	if v := strings.TrimSpace(opt.ffplayPath); v != "" {
		cfg.FFplayPath = v
	}
	if v := strings.TrimSpace(opt.logLevel); v != "" {
		level, err := config.ParseLogLevel(v)
		if err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		cfg.LogLevel = level
	}
	if opt.noSpeaker {
		cfg.NoSpeaker = true
	}
	if opt.noGreeting {
		cfg.Greeting = false
	}
	return cfg.Validate()
}

func setupLogger(level slog.Level, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// buildDeps wires the live transport, audio devices and model backends. The
// returned cleanup releases the speaker.
func buildDeps(ctx context.Context, cfg config.Config, logger *slog.Logger) (coach.Deps, func(), error) {
	var opener capture.Opener
	switch cfg.MicBackend {
	case config.MicBackendPortAudio:
		opener = capture.PortAudioOpener()
	default:
		opener = capture.FFmpegOpener(cfg.FFmpegPath)
	}

	var sink playback.Sink = playback.DiscardSink{}
	if !cfg.NoSpeaker {
		ffLogLevel := "error"
		if cfg.LogLevel <= slog.LevelDebug {
			ffLogLevel = "info"
		}
		s, err := playback.NewFFPlaySink(playback.FFPlayConfig{
			Path:       cfg.FFplayPath,
			SampleRate: live.OutputSampleRate,
			Channels:   1,
			LogLevel:   ffLogLevel,
		})
		if err != nil {
			logger.Warn("speaker unavailable, audio will be discarded", "error", err)
		} else {
			sink = s
		}
	}

	var player *playback.Scheduler
	deps := coach.Deps{
		Connect: func(ctx context.Context, systemInstruction string) (coach.LiveSession, error) {
			session, err := geminilive.Connect(ctx, geminilive.Config{
				APIKey:            cfg.GeminiAPIKey,
				URL:               cfg.LiveURL,
				Model:             cfg.LiveModel,
				Voice:             cfg.Voice,
				SystemInstruction: systemInstruction,
				ConnectTimeout:    cfg.ConnectTimeout,
				WriteTimeout:      cfg.WSWriteTimeout,
				PingInterval:      cfg.WSPingInterval,
				Logger:            logger,
			})
			if err != nil {
				return nil, err
			}
			return session, nil
		},
		StartCapture: func(ctx context.Context, sender capture.Sender) (coach.CaptureHandle, error) {
			h, err := capture.Start(ctx, opener, sender, capture.Options{Logger: logger})
			if err != nil {
				return nil, err
			}
			return h, nil
		},
		NewPlayer: func(onDrained func()) coach.Player {
			player = playback.New(sink,
				playback.WithFormat(live.OutputSampleRate, 1),
				playback.WithOnDrained(onDrained),
				playback.WithLogger(logger),
			)
			return player
		},
	}

	cleanup := func() {
		if player != nil {
			_ = player.Close()
			return
		}
		_ = sink.Close()
	}

	if cfg.Greeting {
		greeter, err := tts.NewGemini(ctx, cfg.GeminiAPIKey, cfg.TTSModel, cfg.Voice)
		if err != nil {
			cleanup()
			return coach.Deps{}, nil, fmt.Errorf("greeting synthesis: %w", err)
		}
		deps.Greeter = greeter
	}

	switch cfg.ReportProvider {
	case config.ReportProviderOpenAI:
		deps.Reporter = report.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.ReportModel)
	default:
		gen, err := report.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.ReportModel)
		if err != nil {
			cleanup()
			return coach.Deps{}, nil, fmt.Errorf("report generator: %w", err)
		}
		deps.Reporter = gen
	}

	return deps, cleanup, nil
}
