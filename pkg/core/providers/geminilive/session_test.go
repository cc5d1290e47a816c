package geminilive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-go/vai-coach/pkg/core"
	"github.com/vango-go/vai-coach/pkg/core/live"
)

func newLiveTestServer(t *testing.T, handler func(r *http.Request, conn *websocket.Conn)) (string, func()) {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handler(r, conn)
	}))

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	return wsURL, server.Close
}

func readSetup(t *testing.T, conn *websocket.Conn) clientMessage {
	t.Helper()
	var msg clientMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Errorf("read setup: %v", err)
	}
	return msg
}

func collectEvents(t *testing.T, s *Session, n int) []live.ServerEvent {
	t.Helper()
	var out []live.ServerEvent
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				t.Fatalf("events closed after %d events, want %d", len(out), n)
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events, want %d", len(out), n)
		}
	}
	return out
}

func TestConnect_SendsSetupAndSplitsServerContent(t *testing.T) {
	gotKey := make(chan string, 1)
	gotSetup := make(chan clientMessage, 1)
	serverURL, closeServer := newLiveTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		gotKey <- r.URL.Query().Get("key")
		gotSetup <- readSetup(t, conn)
		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
		// Sent as a binary frame, which the server is allowed to do.
		payload, _ := json.Marshal(map[string]any{
			"serverContent": map[string]any{
				"interrupted":         true,
				"inputTranscription":  map[string]any{"text": "I like"},
				"outputTranscription": map[string]any{"text": "Great"},
				"modelTurn": map[string]any{"parts": []map[string]any{
					{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": "AAAA"}},
					{"text": "ignored"},
					{"inlineData": map[string]any{"mimeType": "audio/pcm;rate=24000", "data": "AQAB"}},
				}},
				"turnComplete": true,
			},
		})
		_ = conn.WriteMessage(websocket.BinaryMessage, payload)
		_, _, _ = conn.ReadMessage()
	})
	defer closeServer()

	s, err := Connect(context.Background(), Config{
		APIKey:            "test-key",
		URL:               serverURL,
		SystemInstruction: "be kind",
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()

	if key := <-gotKey; key != "test-key" {
		t.Fatalf("key = %q, want test-key", key)
	}
	setup := (<-gotSetup).Setup
	if setup == nil {
		t.Fatalf("first message was not setup")
	}
	if setup.Model != "models/"+DefaultModel {
		t.Fatalf("model = %q", setup.Model)
	}
	if got := setup.GenerationConfig.ResponseModalities; len(got) != 1 || got[0] != "AUDIO" {
		t.Fatalf("responseModalities = %v", got)
	}
	if setup.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != DefaultVoice {
		t.Fatalf("voice = %+v", setup.GenerationConfig.SpeechConfig)
	}
	if setup.SystemInstruction == nil || setup.SystemInstruction.Parts[0].Text != "be kind" {
		t.Fatalf("systemInstruction = %+v", setup.SystemInstruction)
	}
	if setup.InputAudioTranscription == nil || setup.OutputAudioTranscription == nil {
		t.Fatalf("transcription not requested: %+v", setup)
	}

	events := collectEvents(t, s, 6)
	want := []live.ServerEvent{
		live.InterruptedEvent{},
		live.InterimTranscriptEvent{Speaker: live.SpeakerUser, Text: "I like"},
		live.InterimTranscriptEvent{Speaker: live.SpeakerAI, Text: "Great"},
		live.AudioChunkEvent{Chunk: live.EncodedChunk{Data: "AAAA", MIMEType: "audio/pcm;rate=24000"}},
		live.AudioChunkEvent{Chunk: live.EncodedChunk{Data: "AQAB", MIMEType: "audio/pcm;rate=24000"}},
		live.TurnCompleteEvent{},
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event[%d] = %#v, want %#v", i, events[i], want[i])
		}
	}
}

func TestSession_SendPreservesOrder(t *testing.T) {
	received := make(chan []string, 1)
	serverURL, closeServer := newLiveTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		readSetup(t, conn)
		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
		var got []string
		for i := 0; i < 50; i++ {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				break
			}
			if msg.RealtimeInput == nil || msg.RealtimeInput.Audio == nil {
				continue
			}
			got = append(got, msg.RealtimeInput.Audio.Data)
		}
		received <- got
	})
	defer closeServer()

	s, err := Connect(context.Background(), Config{URL: serverURL})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()

	var want []string
	for i := 0; i < 50; i++ {
		chunk := live.EncodeOutbound([]float32{float32(i) / 100}, live.InputSampleRate)
		want = append(want, chunk.Data)
		if err := s.Send(chunk); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	select {
	case got := <-received:
		if len(got) != len(want) {
			t.Fatalf("server got %d frames, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("frame %d = %q, want %q", i, got[i], want[i])
			}
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for frames")
	}
}

func TestSession_AbnormalCloseSetsTransportError(t *testing.T) {
	serverURL, closeServer := newLiveTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		readSetup(t, conn)
		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "boom"))
		_ = conn.Close()
	})
	defer closeServer()

	s, err := Connect(context.Background(), Config{URL: serverURL})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer s.Close()

	select {
	case _, ok := <-s.Events():
		if ok {
			t.Fatalf("unexpected event")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("events channel not closed")
	}
	if !core.IsType(s.Err(), core.ErrTransport) {
		t.Fatalf("Err = %v, want transport error", s.Err())
	}
}

func TestSession_NormalCloseHasNoError(t *testing.T) {
	serverURL, closeServer := newLiveTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		readSetup(t, conn)
		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
		_ = conn.Close()
	})
	defer closeServer()

	s, err := Connect(context.Background(), Config{URL: serverURL})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	<-s.done
	if s.Err() != nil {
		t.Fatalf("Err = %v, want nil", s.Err())
	}
	_ = s.Close()
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	serverURL, closeServer := newLiveTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		defer conn.Close()
		readSetup(t, conn)
		_ = conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer closeServer()

	s, err := Connect(context.Background(), Config{URL: serverURL})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := s.Send(live.EncodeOutbound([]float32{0}, live.InputSampleRate)); !errors.Is(err, ErrClosed) {
		t.Fatalf("Send after Close = %v, want ErrClosed", err)
	}
	if s.Err() != nil {
		t.Fatalf("Err after Close = %v, want nil", s.Err())
	}
}

func TestConnect_FailsWithoutSetupComplete(t *testing.T) {
	serverURL, closeServer := newLiveTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		readSetup(t, conn)
		_ = conn.Close()
	})
	defer closeServer()

	_, err := Connect(context.Background(), Config{URL: serverURL, ConnectTimeout: time.Second})
	if !core.IsType(err, core.ErrTransport) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestConnect_DialFailure(t *testing.T) {
	_, err := Connect(context.Background(), Config{URL: "ws://127.0.0.1:1/nowhere", ConnectTimeout: time.Second})
	if !core.IsType(err, core.ErrTransport) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestSplitServerContent_SkipsEmptyPieces(t *testing.T) {
	events := splitServerContent(&serverContent{
		InputTranscription:  &transcription{Text: ""},
		OutputTranscription: &transcription{Text: "hi"},
		ModelTurn: &content{Parts: []part{
			{InlineData: &blob{MIMEType: "image/png", Data: "AAAA"}},
			{InlineData: &blob{MIMEType: "audio/pcm;rate=24000", Data: ""}},
		}},
	})
	if len(events) != 1 {
		t.Fatalf("events = %#v, want one AI transcript", events)
	}
	if splitServerContent(nil) != nil {
		t.Fatalf("nil content produced events")
	}
}

func TestNewSetupMessage_KeepsQualifiedModel(t *testing.T) {
	msg := newSetupMessage(Config{Model: "models/custom"})
	if msg.Setup.Model != "models/custom" {
		t.Fatalf("model = %q", msg.Setup.Model)
	}
	if msg.Setup.SystemInstruction != nil {
		t.Fatalf("empty instruction should be omitted")
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"inputAudioTranscription":{}`) {
		t.Fatalf("setup json = %s", raw)
	}
}
