package api

// OutputEvent is one increment of an agent reply as seen by transports.
// Streams are finite: zero or more content/thinking events followed by
// exactly one done or error event.
type OutputEvent struct {
	Type  string `json:"type"`
	Chunk string `json:"chunk,omitempty"`
	Error string `json:"error,omitempty"`
}

const (
	EventContent  = "content"
	EventThinking = "thinking"
	EventDone     = "done"
	EventError    = "error"
)

// NewContentEvent wraps an assistant text delta.
func NewContentEvent(chunk string) OutputEvent {
	return OutputEvent{Type: EventContent, Chunk: chunk}
}

// NewThinkingEvent wraps a reasoning delta.
func NewThinkingEvent(chunk string) OutputEvent {
	return OutputEvent{Type: EventThinking, Chunk: chunk}
}

// NewDoneEvent terminates a successful stream.
func NewDoneEvent() OutputEvent {
	return OutputEvent{Type: EventDone}
}

// NewErrorEvent terminates a failed stream.
func NewErrorEvent(msg string) OutputEvent {
	return OutputEvent{Type: EventError, Error: msg}
}
