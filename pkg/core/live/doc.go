// Package live holds the data model of a voice coaching session.
//
// It covers three concerns that carry no I/O of their own:
//
//   - PCM codec: float microphone samples to base64 16-bit PCM and back
//   - Server events: the tagged union produced by a streaming session
//   - Turn reducer: status, interim text, and the committed transcript
//
// # Data Flow
//
//	Mic frames → EncodeOutbound → session.Send
//	session.Events → Reduce → effects (schedule playback, interrupt, analyze)
//
// # State Machine
//
//	IDLE → CONNECTING → LISTENING ⇄ SPEAKING → (ERROR | IDLE)
//
// An interruption is an event, not a state: it forces SPEAKING back to
// LISTENING and discards the model's partial text.
package live
