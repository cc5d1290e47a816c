// Package geminilive is a client for the Gemini Live bidirectional audio
// API over a raw websocket.
package geminilive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-go/vai-coach/pkg/core"
	"github.com/vango-go/vai-coach/pkg/core/live"
)

const (
	DefaultURL   = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	DefaultModel = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultVoice = "Zephyr"

	defaultConnectTimeout = 15 * time.Second
	eventBuffer           = 64
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("live session is closed")

// Config configures a live session.
type Config struct {
	APIKey            string
	URL               string
	Model             string
	Voice             string
	SystemInstruction string

	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration

	Dialer *websocket.Dialer
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Voice == "" {
		c.Voice = DefaultVoice
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

func (c Config) endpoint() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("parse live url: %w", err)
	}
	if c.APIKey != "" {
		q := u.Query()
		q.Set("key", c.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Session is an open live session. Events arrive on a single ordered
// channel that is closed when the connection ends.
type Session struct {
	conn   *websocket.Conn
	logger *slog.Logger

	events chan live.ServerEvent
	done   chan struct{}
	stop   chan struct{}

	writeMu     sync.Mutex
	queue       *sendQueue
	writerDone  chan struct{}
	closeOnce   sync.Once
	closed      atomic.Bool
	writeWindow time.Duration

	errMu sync.Mutex
	err   error
}

// Connect dials the live endpoint, sends the setup message and waits for the
// server to acknowledge it. A nil error means the session is open.
func Connect(ctx context.Context, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	endpoint, err := cfg.endpoint()
	if err != nil {
		return nil, core.NewTransportError("invalid live endpoint", err)
	}

	dialCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	conn, resp, err := cfg.Dialer.DialContext(dialCtx, endpoint, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, core.NewTransportError(fmt.Sprintf("websocket dial failed (status %d)", resp.StatusCode), err)
		}
		return nil, core.NewTransportError("websocket dial failed", err)
	}

	setup, err := json.Marshal(newSetupMessage(cfg))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("encode setup: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, setup); err != nil {
		_ = conn.Close()
		return nil, core.NewTransportError("send setup", err)
	}

	if err := awaitSetupComplete(dialCtx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Session{
		conn:        conn,
		logger:      cfg.Logger,
		events:      make(chan live.ServerEvent, eventBuffer),
		done:        make(chan struct{}),
		stop:        make(chan struct{}),
		queue:       newSendQueue(),
		writerDone:  make(chan struct{}),
		writeWindow: cfg.WriteTimeout,
	}
	if s.writeWindow <= 0 {
		s.writeWindow = 5 * time.Second
	}
	w := &outboundWriter{
		ws:           conn,
		mu:           &s.writeMu,
		queue:        s.queue,
		done:         s.stop,
		writeTimeout: cfg.WriteTimeout,
		pingInterval: cfg.PingInterval,
	}
	go func() {
		defer close(s.writerDone)
		if err := w.Run(); err != nil {
			s.setErr(core.NewTransportError("write live frame", err))
			_ = conn.Close()
		}
	}()
	go s.readLoop()
	return s, nil
}

func awaitSetupComplete(ctx context.Context, conn *websocket.Conn) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		defer conn.SetReadDeadline(time.Time{})
	}
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return core.NewTransportError("await setup complete", err)
		}
		var msg serverMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return core.NewTransportError("decode setup response", err)
		}
		if msg.SetupComplete != nil {
			return nil
		}
	}
}

// Events yields server events in arrival order. The read loop blocks rather
// than drop an event, so callers must keep draining until the channel closes.
func (s *Session) Events() <-chan live.ServerEvent {
	if s == nil {
		return nil
	}
	return s.events
}

// Send queues an audio chunk for transmission. It never blocks; chunks are
// written in the order they were sent.
func (s *Session) Send(chunk live.EncodedChunk) error {
	if s == nil {
		return ErrClosed
	}
	if s.closed.Load() {
		return ErrClosed
	}
	frame, err := json.Marshal(newAudioMessage(chunk))
	if err != nil {
		return fmt.Errorf("encode audio: %w", err)
	}
	if !s.queue.push(frame) {
		return ErrClosed
	}
	return nil
}

// Close ends the session. Queued audio is discarded and close errors are
// ignored. Safe to call more than once.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.queue.close()
		close(s.stop)
		<-s.writerDone
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(s.writeWindow))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

// Err returns the terminal transport error, or nil if the session ended
// cleanly or is still open.
func (s *Session) Err() error {
	if s == nil {
		return nil
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Session) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *Session) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			s.setErr(core.NewTransportError("read live frame", err))
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("ignoring undecodable live frame", "error", err, "bytes", len(data))
			continue
		}
		if msg.GoAway != nil {
			s.logger.Warn("live server is going away", "time_left", strings.TrimSpace(msg.GoAway.TimeLeft))
		}
		for _, ev := range splitServerContent(msg.ServerContent) {
			select {
			case s.events <- ev:
			case <-s.stop:
				return
			}
		}
	}
}
