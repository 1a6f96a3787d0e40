package live

// Event is the interface for all session transport events. The read loop
// decodes every server frame into one or more tagged variants so a single
// reconciler loop can consume them in server-send order.
type Event interface {
	// EventType returns the event type string for logging and serialization.
	EventType() string
}

// ReadyEvent is emitted once the remote side acknowledges session setup.
type ReadyEvent struct{}

func (e ReadyEvent) EventType() string { return "ready" }

// ToolCallEvent carries a generative-UI tool invocation. The caller must
// answer with SendToolResponse referencing ID, or the remote turn stalls.
type ToolCallEvent struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

func (e ToolCallEvent) EventType() string { return "tool_call" }

// AudioChunkEvent carries one decoded chunk of agent speech.
type AudioChunkEvent struct {
	PCM      []byte `json:"-"`
	MIMEType string `json:"mime_type,omitempty"`
}

func (e AudioChunkEvent) EventType() string { return "audio_chunk" }

// OutputTranscriptionEvent is an incremental fragment of the agent's
// current utterance.
type OutputTranscriptionEvent struct {
	Text string `json:"text"`
}

func (e OutputTranscriptionEvent) EventType() string { return "output_transcription" }

// InputTranscriptionEvent is an incremental fragment of the user's speech.
type InputTranscriptionEvent struct {
	Text string `json:"text"`
}

func (e InputTranscriptionEvent) EventType() string { return "input_transcription" }

// Source is one web citation attached to grounded output.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// GroundingEvent carries citation metadata for the agent's current utterance.
type GroundingEvent struct {
	Sources []Source `json:"sources"`
}

func (e GroundingEvent) EventType() string { return "grounding" }

// TurnCompleteEvent marks the end of the agent's turn.
type TurnCompleteEvent struct{}

func (e TurnCompleteEvent) EventType() string { return "turn_complete" }

// InterruptedEvent signals barge-in: the user started speaking while agent
// audio was still playing. All pending playback should be discarded.
type InterruptedEvent struct{}

func (e InterruptedEvent) EventType() string { return "interrupted" }

// DebugEvent mirrors internal debug logging onto the event channel so a
// consumer can surface it without scraping stderr. Only emitted when
// Config.Debug is set.
type DebugEvent struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

func (e DebugEvent) EventType() string { return "debug" }

// ErrorEvent reports a transport or server error. The session is torn down
// after emitting it.
type ErrorEvent struct {
	Err error `json:"-"`
}

func (e ErrorEvent) EventType() string { return "error" }

// ClosedEvent is the final event on the channel; the channel is closed
// immediately after.
type ClosedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e ClosedEvent) EventType() string { return "closed" }
