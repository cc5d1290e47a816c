package live

// Status is the single conversational state exposed to the rest of the
// application.
type Status int

const (
	// StatusIdle is the state before Start and after Stop.
	StatusIdle Status = iota
	// StatusConnecting is while the greeting plays or the session is opening.
	StatusConnecting
	// StatusListening is when the user is expected to speak.
	StatusListening
	// StatusSpeaking is when model audio is scheduled or playing.
	StatusSpeaking
	// StatusError is terminal until an explicit restart.
	StatusError
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusConnecting:
		return "CONNECTING"
	case StatusListening:
		return "LISTENING"
	case StatusSpeaking:
		return "SPEAKING"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Active reports whether a conversation is in progress.
func (s Status) Active() bool {
	switch s {
	case StatusConnecting, StatusListening, StatusSpeaking:
		return true
	default:
		return false
	}
}
