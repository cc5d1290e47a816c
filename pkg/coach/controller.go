// Package coach runs a voice interview end to end, from the spoken greeting
// to the generated career report.
package coach

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vango-go/vai-coach/pkg/core/capture"
	"github.com/vango-go/vai-coach/pkg/core/live"
	"github.com/vango-go/vai-coach/pkg/core/playback"
	"github.com/vango-go/vai-coach/pkg/core/report"
	"github.com/vango-go/vai-coach/pkg/core/voice/tts"
)

// Mode is the screen the application is on.
type Mode int

const (
	ModeWelcome Mode = iota
	ModeInterview
	ModeAnalysis
)

func (m Mode) String() string {
	switch m {
	case ModeWelcome:
		return "WELCOME"
	case ModeInterview:
		return "INTERVIEW"
	case ModeAnalysis:
		return "ANALYSIS"
	default:
		return "UNKNOWN"
	}
}

// LiveSession is an open streaming session.
type LiveSession interface {
	Send(chunk live.EncodedChunk) error
	Events() <-chan live.ServerEvent
	Err() error
	Close() error
}

// Player schedules model audio.
type Player interface {
	Enqueue(chunk live.EncodedChunk) (*playback.Source, error)
	Interrupt()
	Active() int
}

// CaptureHandle is a running microphone pipeline. Done closes when capture
// ends; Err is non-nil if the device failed rather than being stopped.
type CaptureHandle interface {
	Stop()
	Done() <-chan struct{}
	Err() error
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	// Connect opens a live session with the given system instruction.
	Connect func(ctx context.Context, systemInstruction string) (LiveSession, error)
	// StartCapture starts forwarding microphone frames to sender.
	StartCapture func(ctx context.Context, sender capture.Sender) (CaptureHandle, error)
	// NewPlayer builds the playback scheduler. onDrained must be called when
	// the last scheduled source finishes.
	NewPlayer func(onDrained func()) Player
	// Greeter speaks the greeting. Optional.
	Greeter tts.Provider
	// Reporter writes the career report.
	Reporter report.Generator
}

// Options tune a Controller.
type Options struct {
	Persona         string
	Greeting        string
	Voice           string
	ConnectTimeout  time.Duration
	AnalysisTimeout time.Duration
	Logger          *slog.Logger
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Persona) == "" {
		o.Persona = Persona
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 15 * time.Second
	}
	if o.AnalysisTimeout <= 0 {
		o.AnalysisTimeout = 2 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Snapshot is a copy of the controller's observable state.
type Snapshot struct {
	SessionID   string
	Mode        Mode
	Status      live.Status
	Transcript  []live.TranscriptEntry
	InterimUser string
	InterimAI   string
	Analyzing   bool
	Result      *report.Result
	Err         error
}

// Loop messages.
type (
	startRequest struct{}
	stopRequest  struct{ done chan struct{} }

	greetingReady struct {
		gen   uint64
		synth *tts.Synthesis
		err   error
	}
	sessionOpened struct {
		gen     uint64
		session LiveSession
	}
	sessionFailed struct {
		gen uint64
		err error
	}
	serverEvent struct {
		gen uint64
		ev  live.ServerEvent
	}
	sessionEnded struct {
		gen uint64
		err error
	}
	captureFailed struct {
		gen uint64
		err error
	}
	playbackDrained struct{}
	analysisDone    struct {
		gen    uint64
		result report.Result
		err    error
	}
)

// Controller owns one interview at a time. All state changes happen on a
// single loop goroutine; the exported methods only post requests to it.
type Controller struct {
	deps   Deps
	opts   Options
	player Player

	ctx      context.Context
	cancel   context.CancelFunc
	inputs   chan any
	loopDone chan struct{}
	stopOnce sync.Once

	snapMu sync.RWMutex
	snap   Snapshot

	subsMu sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int

	// Owned by the loop goroutine.
	logger          *slog.Logger
	sessionID       string
	state           live.State
	mode            Mode
	gen             uint64
	analysisGen     uint64
	runCtx          context.Context
	runCancel       context.CancelFunc
	session         LiveSession
	capture         CaptureHandle
	greetingPending bool
	analyzing       bool
	result          *report.Result
	err             error
}

// New creates a controller and starts its loop.
func New(deps Deps, opts Options) *Controller {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		deps:     deps,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		inputs:   make(chan any, 64),
		loopDone: make(chan struct{}),
		subs:     make(map[int]func(Snapshot)),
		logger:   opts.Logger,
		mode:     ModeWelcome,
	}
	if deps.NewPlayer != nil {
		c.player = deps.NewPlayer(func() { c.post(playbackDrained{}) })
	}
	if c.player == nil {
		c.player = playback.New(nil, playback.WithOnDrained(func() { c.post(playbackDrained{}) }), playback.WithLogger(opts.Logger))
	}
	c.snap = c.buildSnapshot()
	go c.loop()
	return c
}

// Start begins a new interview. It is ignored while one is already running
// or a report is being generated.
func (c *Controller) Start() {
	c.post(startRequest{})
}

// Stop tears down the live session and returns once status is Idle. Safe to
// call repeatedly. It must not be called from a Subscribe callback.
func (c *Controller) Stop() {
	done := make(chan struct{})
	if !c.post(stopRequest{done: done}) {
		return
	}
	select {
	case <-done:
	case <-c.loopDone:
	}
}

// Close stops the session, cancels any analysis, and ends the loop.
func (c *Controller) Close() {
	c.Stop()
	c.stopOnce.Do(func() {
		c.cancel()
	})
	<-c.loopDone
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

// Subscribe registers fn to receive every new snapshot. fn runs on the
// controller goroutine and must not block. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.subsMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subsMu.Unlock()
	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

// post delivers msg to the loop. It blocks rather than drop and returns false
// once the controller is closed.
func (c *Controller) post(msg any) bool {
	select {
	case c.inputs <- msg:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *Controller) loop() {
	defer close(c.loopDone)
	for {
		select {
		case <-c.ctx.Done():
			c.teardown()
			return
		case msg := <-c.inputs:
			c.handle(msg)
			c.publish()
			if req, ok := msg.(stopRequest); ok {
				close(req.done)
			}
		}
	}
}

func (c *Controller) handle(msg any) {
	switch m := msg.(type) {
	case startRequest:
		c.handleStart()
	case stopRequest:
		c.teardown()
		c.reduce(live.StoppedInput{})
	case greetingReady:
		if m.gen != c.gen || c.state.Status != live.StatusConnecting {
			return
		}
		c.handleGreeting(m)
	case sessionOpened:
		if m.gen != c.gen || c.runCancel == nil {
			// Stopped while connecting.
			go m.session.Close()
			return
		}
		c.handleOpened(m.session)
	case sessionFailed:
		if m.gen != c.gen {
			return
		}
		c.fail(m.err)
	case serverEvent:
		if m.gen != c.gen {
			return
		}
		c.reduce(m.ev)
	case sessionEnded:
		if m.gen != c.gen || c.session == nil {
			return
		}
		if m.err != nil {
			c.fail(m.err)
			return
		}
		c.logger.Info("live session closed by server")
		c.teardown()
		c.reduce(live.StoppedInput{})
	case captureFailed:
		if m.gen != c.gen {
			return
		}
		c.fail(m.err)
	case playbackDrained:
		if c.greetingPending {
			c.greetingPending = false
			c.connect()
			return
		}
		// A chunk may have been scheduled after the drain was posted.
		if c.player.Active() == 0 {
			c.reduce(live.PlaybackDrainedInput{})
		}
	case analysisDone:
		if m.gen != c.analysisGen {
			return
		}
		c.analyzing = false
		res := m.result
		c.result = &res
		if m.err != nil {
			c.logger.Error("career analysis failed", "error", m.err)
		}
	}
}

func (c *Controller) handleStart() {
	if c.state.Status.Active() || c.analyzing {
		c.logger.Debug("start ignored", "status", c.state.Status.String(), "analyzing", c.analyzing)
		return
	}
	c.teardown()
	c.gen++
	c.analysisGen++
	c.sessionID = uuid.NewString()
	c.logger = c.opts.Logger.With("session_id", c.sessionID)
	c.mode = ModeInterview
	c.state = live.State{}
	c.result = nil
	c.err = nil

	ctx, cancel := context.WithCancel(c.ctx)
	c.runCtx, c.runCancel = ctx, cancel
	c.reduce(live.ConnectingInput{})
	c.logger.Info("interview starting")

	if c.deps.Greeter == nil || strings.TrimSpace(c.opts.Greeting) == "" {
		c.connect()
		return
	}
	gen := c.gen
	greeter := c.deps.Greeter
	text := c.opts.Greeting
	voice := c.opts.Voice
	go func() {
		synth, err := greeter.Synthesize(ctx, text, tts.SynthesizeOptions{Voice: voice})
		c.post(greetingReady{gen: gen, synth: synth, err: err})
	}()
}

func (c *Controller) handleGreeting(m greetingReady) {
	if m.err != nil || m.synth == nil || len(m.synth.Audio) == 0 {
		c.logger.Warn("greeting unavailable, connecting directly", "error", m.err)
		c.connect()
		return
	}
	c.reduce(live.GreetingStartedInput{Text: c.opts.Greeting})
	rate := m.synth.SampleRate
	if rate <= 0 {
		rate = live.OutputSampleRate
	}
	src, err := c.player.Enqueue(live.PCMChunk(m.synth.Audio, rate))
	if err != nil || src == nil {
		c.logger.Warn("greeting playback failed", "error", err)
		c.connect()
		return
	}
	c.greetingPending = true
	c.logger.Debug("greeting playing", "duration", m.synth.Duration())
}

func (c *Controller) connect() {
	if c.deps.Connect == nil {
		c.fail(errors.New("no live connector configured"))
		return
	}
	gen := c.gen
	connectFn := c.deps.Connect
	persona := c.opts.Persona
	parent := c.runCtx
	timeout := c.opts.ConnectTimeout
	logger := c.logger
	go func() {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		session, err := connectFn(ctx, persona)
		if err != nil {
			logger.Error("live session failed to open", "error", err)
			c.post(sessionFailed{gen: gen, err: err})
			return
		}
		if !c.post(sessionOpened{gen: gen, session: session}) {
			_ = session.Close()
		}
	}()
}

func (c *Controller) handleOpened(session LiveSession) {
	c.session = session
	c.reduce(live.SessionOpenedInput{})
	c.logger.Info("live session open")

	gen := c.gen
	go func() {
		for ev := range session.Events() {
			if !c.post(serverEvent{gen: gen, ev: ev}) {
				return
			}
		}
		c.post(sessionEnded{gen: gen, err: session.Err()})
	}()

	if c.deps.StartCapture == nil {
		return
	}
	h, err := c.deps.StartCapture(c.runCtx, session)
	if err != nil {
		c.fail(err)
		return
	}
	c.capture = h
	go func() {
		<-h.Done()
		if err := h.Err(); err != nil {
			c.post(captureFailed{gen: gen, err: err})
		}
	}()
}

// fail records a terminal error, releases resources and leaves status Error.
func (c *Controller) fail(err error) {
	c.logger.Error("interview failed", "error", err)
	c.err = err
	c.teardown()
	c.reduce(live.TransportFailedInput{Err: err})
}

func (c *Controller) reduce(in live.Input) {
	prev := c.state.Status
	next, effects := live.Reduce(c.state, in)
	c.state = next
	if next.Status != prev {
		c.logger.Debug("status changed", "from", prev.String(), "to", next.Status.String())
	}
	for _, eff := range effects {
		c.apply(eff)
	}
}

func (c *Controller) apply(eff live.Effect) {
	switch e := eff.(type) {
	case live.SchedulePlayback:
		src, err := c.player.Enqueue(e.Chunk)
		if err != nil {
			c.logger.Warn("skipping undecodable audio chunk", "error", err)
		}
		// Nothing was scheduled, so no drain callback will follow.
		if src == nil && c.player.Active() == 0 {
			c.reduce(live.PlaybackDrainedInput{})
		}
	case live.InterruptPlayback:
		c.player.Interrupt()
	case live.StartAnalysis:
		c.beginAnalysis(e.Transcript)
	}
}

func (c *Controller) beginAnalysis(transcript []live.TranscriptEntry) {
	c.logger.Info("handoff detected, switching to analysis", "entries", len(transcript))
	c.mode = ModeAnalysis
	c.analyzing = true
	c.teardown()
	c.reduce(live.StoppedInput{})

	c.analysisGen++
	gen := c.analysisGen
	reporter := c.deps.Reporter
	parent := c.ctx
	timeout := c.opts.AnalysisTimeout
	go func() {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		res, err := report.Analyze(ctx, reporter, transcript)
		c.post(analysisDone{gen: gen, result: res, err: err})
	}()
}

// teardown releases session resources, the live session first and playback
// last. It does not touch status.
func (c *Controller) teardown() {
	c.gen++
	c.greetingPending = false
	if c.runCancel != nil {
		c.runCancel()
		c.runCtx, c.runCancel = nil, nil
	}
	if c.session != nil {
		_ = c.session.Close()
		c.session = nil
	}
	if c.capture != nil {
		c.capture.Stop()
		c.capture = nil
	}
	c.player.Interrupt()
}

func (c *Controller) buildSnapshot() Snapshot {
	transcript := make([]live.TranscriptEntry, len(c.state.Transcript))
	copy(transcript, c.state.Transcript)
	snap := Snapshot{
		SessionID:   c.sessionID,
		Mode:        c.mode,
		Status:      c.state.Status,
		Transcript:  transcript,
		InterimUser: c.state.InterimUser,
		InterimAI:   c.state.InterimAI,
		Analyzing:   c.analyzing,
		Err:         c.err,
	}
	if c.result != nil {
		res := *c.result
		snap.Result = &res
	}
	return snap
}

func (c *Controller) publish() {
	snap := c.buildSnapshot()
	c.snapMu.Lock()
	c.snap = snap
	c.snapMu.Unlock()

	c.subsMu.Lock()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subsMu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}
