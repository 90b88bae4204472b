package voice

import "context"

// Backend is the external voice-assistant session service. Start, Say and
// Stop are fire-and-forget requests: their outcome arrives later on the
// Events channel, decoupled from the call site.
type Backend interface {
	// Start asks the vendor to open a session with the given assistant.
	// Arrival in the active state is signalled by a CallStarted event,
	// failure by an Error event. An immediate error return means the
	// request itself could not be issued.
	Start(ctx context.Context, assistantID string, metadata map[string]string) error

	// Say synthesizes text into the open session. With endCallAfterSpoken
	// the backend terminates the call after playback, delivering a
	// CallEnded event.
	Say(ctx context.Context, text string, endCallAfterSpoken bool) error

	// Stop terminates the open session. Safe to call without one.
	Stop(ctx context.Context) error

	// Events delivers the backend's lifecycle event stream. The channel
	// is closed when the backend shuts down for good.
	Events() <-chan Event
}
