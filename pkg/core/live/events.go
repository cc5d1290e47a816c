package live

// Speaker identifies who produced a piece of transcript text.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerAI   Speaker = "ai"
)

// Input is anything the turn reducer consumes: server events and the
// lifecycle signals raised by the controller.
type Input interface {
	inputType() string
}

// ServerEvent is one inbound message from the streaming session.
// Exactly one of the variants below is produced per event.
type ServerEvent interface {
	Input
	// EventType returns the event type string for logging.
	EventType() string
}

// InterimTranscriptEvent carries a fragment of the in-progress turn's text.
type InterimTranscriptEvent struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

func (e InterimTranscriptEvent) EventType() string { return "transcript.interim" }
func (e InterimTranscriptEvent) inputType() string { return e.EventType() }

// AudioChunkEvent carries one chunk of synthesized speech.
type AudioChunkEvent struct {
	Chunk EncodedChunk `json:"chunk"`
}

func (e AudioChunkEvent) EventType() string { return "audio.chunk" }
func (e AudioChunkEvent) inputType() string { return e.EventType() }

// TurnCompleteEvent marks the end of the current conversational turn.
type TurnCompleteEvent struct{}

func (e TurnCompleteEvent) EventType() string { return "turn.complete" }
func (e TurnCompleteEvent) inputType() string { return e.EventType() }

// InterruptedEvent signals that the user barged in over the model's speech.
type InterruptedEvent struct{}

func (e InterruptedEvent) EventType() string { return "turn.interrupted" }
func (e InterruptedEvent) inputType() string { return e.EventType() }

// ConnectingInput is raised when a session is about to be opened.
type ConnectingInput struct{}

func (ConnectingInput) inputType() string { return "lifecycle.connecting" }

// GreetingStartedInput is raised when the spoken greeting begins playing.
type GreetingStartedInput struct {
	Text string
}

func (GreetingStartedInput) inputType() string { return "lifecycle.greeting_started" }

// SessionOpenedInput is raised once the streaming session accepted its setup.
type SessionOpenedInput struct{}

func (SessionOpenedInput) inputType() string { return "lifecycle.session_opened" }

// PlaybackDrainedInput is raised when the last scheduled source finished.
type PlaybackDrainedInput struct{}

func (PlaybackDrainedInput) inputType() string { return "lifecycle.playback_drained" }

// TransportFailedInput is raised on a terminal session or device error.
type TransportFailedInput struct {
	Err error
}

func (TransportFailedInput) inputType() string { return "lifecycle.transport_failed" }

// StoppedInput is raised after teardown completed.
type StoppedInput struct{}

func (StoppedInput) inputType() string { return "lifecycle.stopped" }
