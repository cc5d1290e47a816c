// Package playback schedules synthesized speech onto a continuous output
// timeline and cancels it on barge-in.
package playback

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-go/vai-coach/pkg/core/live"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("playback scheduler is closed")

// Sink receives PCM in timeline order. Reset drops anything it buffered.
type Sink interface {
	Write(pcm []byte) error
	Reset() error
	Close() error
}

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc arranges for f to run after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Source is one scheduled buffer on the output timeline. Offsets are
// measured from the scheduler's creation.
type Source struct {
	ID       uint64
	Start    time.Duration
	Duration time.Duration

	timer Timer
}

// End returns the timeline offset at which the source finishes.
func (s *Source) End() time.Duration {
	return s.Start + s.Duration
}

// Scheduler places each decoded chunk directly after the previous one, or at
// the current output time if the previous one already finished.
//
// Enqueue and Interrupt are expected to be called from a single goroutine;
// end-of-playback timers run on their own goroutines and only touch state
// under mu.
type Scheduler struct {
	mu        sync.Mutex
	nextStart time.Duration
	active    map[uint64]*Source
	seq       uint64
	closed    bool

	sinkMu sync.Mutex
	sink   Sink

	now        func() time.Time
	origin     time.Time
	afterFunc  AfterFunc
	sampleRate int
	channels   int
	onDrained  func()
	logger     *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock used as the output clock.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAfterFunc replaces time.AfterFunc for end-of-playback callbacks.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.afterFunc = fn
		}
	}
}

// WithFormat sets the decode target. Default: 24 kHz mono.
func WithFormat(sampleRate, channels int) Option {
	return func(s *Scheduler) {
		if sampleRate > 0 {
			s.sampleRate = sampleRate
		}
		if channels > 0 {
			s.channels = channels
		}
	}
}

// WithOnDrained registers the callback run when the last active source
// finishes on its own. It is not called for Interrupt.
func WithOnDrained(fn func()) Option {
	return func(s *Scheduler) {
		s.onDrained = fn
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a scheduler writing to sink. A nil sink discards audio.
func New(sink Sink, opts ...Option) *Scheduler {
	if sink == nil {
		sink = DiscardSink{}
	}
	s := &Scheduler{
		active:     make(map[uint64]*Source),
		sink:       sink,
		now:        time.Now,
		afterFunc:  realAfterFunc,
		sampleRate: live.OutputSampleRate,
		channels:   1,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.origin = s.now()
	return s
}

func (s *Scheduler) clock() time.Duration {
	return s.now().Sub(s.origin)
}

// Enqueue decodes chunk and schedules it at max(nextStart, now).
// An empty chunk schedules nothing and returns a nil Source.
func (s *Scheduler) Enqueue(chunk live.EncodedChunk) (*Source, error) {
	frame, err := live.DecodeInbound(chunk, s.sampleRate, s.channels)
	if err != nil {
		return nil, err
	}
	if len(frame.Samples) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	now := s.clock()
	start := s.nextStart
	if now > start {
		start = now
	}
	s.seq++
	src := &Source{
		ID:       s.seq,
		Start:    start,
		Duration: frame.Duration(),
	}
	s.nextStart = src.End()
	s.active[src.ID] = src
	id := src.ID
	src.timer = s.afterFunc(src.End()-now, func() { s.finish(id) })
	s.mu.Unlock()

	s.sinkMu.Lock()
	werr := s.sink.Write(frame.PCM())
	s.sinkMu.Unlock()
	if werr != nil {
		s.logger.Warn("playback sink write failed", "source", id, "error", werr)
	}
	return src, nil
}

func (s *Scheduler) finish(id uint64) {
	s.mu.Lock()
	if _, ok := s.active[id]; !ok {
		// Already stopped by Interrupt.
		s.mu.Unlock()
		return
	}
	delete(s.active, id)
	drained := len(s.active) == 0
	onDrained := s.onDrained
	s.mu.Unlock()

	if drained && onDrained != nil {
		onDrained()
	}
}

// Interrupt stops every active source, empties the active set, and resets
// the timeline cursor to zero.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	stopped := len(s.active)
	for id, src := range s.active {
		if src.timer != nil {
			_ = src.timer.Stop()
		}
		delete(s.active, id)
	}
	s.nextStart = 0
	s.mu.Unlock()

	s.sinkMu.Lock()
	err := s.sink.Reset()
	s.sinkMu.Unlock()
	if err != nil {
		s.logger.Warn("playback sink reset failed", "error", err)
	}
	if stopped > 0 {
		s.logger.Debug("playback interrupted", "stopped_sources", stopped)
	}
}

// Active returns the number of scheduled or playing sources.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// NextStart returns the timeline cursor.
func (s *Scheduler) NextStart() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}

// Close interrupts playback and releases the sink. It is safe to call twice.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Interrupt()

	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	return s.sink.Close()
}
