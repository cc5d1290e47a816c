package live

import (
	"strings"
)

// HandoffPhrase is the line the interview persona speaks to end the
// interview. A committed AI turn containing it starts the analysis.
//
// This is a substring match on free text, so a paraphrase will not trigger
// and a quote of the phrase will.
const HandoffPhrase = "Switching to analysis mode now."

// TranscriptEntry is one committed turn. Entries are never mutated.
type TranscriptEntry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// State is the turn and transcript state owned by the controller loop.
type State struct {
	Status     Status
	Transcript []TranscriptEntry

	// Interim text of the turn in progress, one buffer per speaker.
	InterimUser string
	InterimAI   string
}

// Effect is work the controller performs after a reduction.
type Effect interface {
	effectType() string
}

// SchedulePlayback asks the playback scheduler to enqueue a chunk.
type SchedulePlayback struct {
	Chunk EncodedChunk
}

func (SchedulePlayback) effectType() string { return "playback.schedule" }

// InterruptPlayback asks the playback scheduler to drop everything.
type InterruptPlayback struct{}

func (InterruptPlayback) effectType() string { return "playback.interrupt" }

// StartAnalysis hands the transcript to the report generator.
type StartAnalysis struct {
	Transcript []TranscriptEntry
}

func (StartAnalysis) effectType() string { return "analysis.start" }

// Reduce applies one input to the state. It does no I/O; side effects are
// returned for the caller to run in order.
func Reduce(s State, in Input) (State, []Effect) {
	switch e := in.(type) {
	case ConnectingInput:
		s.Status = StatusConnecting
		return s, nil

	case GreetingStartedInput:
		s.Status = StatusSpeaking
		if text := strings.TrimSpace(e.Text); text != "" {
			s.Transcript = appendEntry(s.Transcript, TranscriptEntry{Speaker: SpeakerAI, Text: text})
		}
		return s, nil

	case SessionOpenedInput:
		if s.Status == StatusConnecting || s.Status == StatusSpeaking {
			s.Status = StatusListening
		}
		return s, nil

	case InterimTranscriptEvent:
		switch e.Speaker {
		case SpeakerUser:
			s.InterimUser += e.Text
		case SpeakerAI:
			s.InterimAI += e.Text
		}
		return s, nil

	case AudioChunkEvent:
		if terminal(s.Status) {
			return s, nil
		}
		s.Status = StatusSpeaking
		return s, []Effect{SchedulePlayback{Chunk: e.Chunk}}

	case PlaybackDrainedInput:
		if s.Status == StatusSpeaking {
			s.Status = StatusListening
		}
		return s, nil

	case InterruptedEvent:
		if terminal(s.Status) {
			return s, nil
		}
		// The model was cut off mid-sentence; its partial text is dropped.
		s.InterimAI = ""
		s.Status = StatusListening
		return s, []Effect{InterruptPlayback{}}

	case TurnCompleteEvent:
		return completeTurn(s)

	case TransportFailedInput:
		s.Status = StatusError
		return s, []Effect{InterruptPlayback{}}

	case StoppedInput:
		s.Status = StatusIdle
		s.InterimUser = ""
		s.InterimAI = ""
		return s, nil
	}
	return s, nil
}

func completeTurn(s State) (State, []Effect) {
	user := strings.TrimSpace(s.InterimUser)
	ai := strings.TrimSpace(s.InterimAI)
	s.InterimUser = ""
	s.InterimAI = ""

	if user != "" {
		s.Transcript = appendEntry(s.Transcript, TranscriptEntry{Speaker: SpeakerUser, Text: user})
	}
	if ai == "" {
		return s, nil
	}
	s.Transcript = appendEntry(s.Transcript, TranscriptEntry{Speaker: SpeakerAI, Text: ai})

	if !strings.Contains(ai, HandoffPhrase) {
		return s, nil
	}
	return s, []Effect{StartAnalysis{Transcript: cloneTranscript(s.Transcript)}}
}

func terminal(s Status) bool {
	return s == StatusIdle || s == StatusError
}

// appendEntry never writes into a backing array shared with an older State.
func appendEntry(t []TranscriptEntry, e TranscriptEntry) []TranscriptEntry {
	out := make([]TranscriptEntry, len(t), len(t)+1)
	copy(out, t)
	return append(out, e)
}

func cloneTranscript(t []TranscriptEntry) []TranscriptEntry {
	out := make([]TranscriptEntry, len(t))
	copy(out, t)
	return out
}
