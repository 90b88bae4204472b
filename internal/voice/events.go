package voice

import "encoding/json"

// EventType enumerates every inbound event the voice backend can deliver.
// The session state machine consumes the first three; the rest are passed
// through to observability.
type EventType string

const (
	EventCallStarted   EventType = "call-started"
	EventCallEnded     EventType = "call-ended"
	EventError         EventType = "error"
	EventSpeechStarted EventType = "speech-started"
	EventSpeechEnded   EventType = "speech-ended"
	EventVolumeLevel   EventType = "volume-level"
	EventMessage       EventType = "message"
)

// Event is one message from the backend's event stream.
type Event struct {
	Type EventType

	// Err is set for EventError.
	Err error

	// Volume is set for EventVolumeLevel, in [0, 1].
	Volume float64

	// Payload carries the raw body for EventMessage.
	Payload json.RawMessage
}
