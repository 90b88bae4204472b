package voice

import (
	"context"
	"sync"
	"time"

	"github.com/uptime-oracle/uptime-oracle/pkg/log"
)

// SimBackend is an in-process stand-in for the vendor voice service, used
// in development and tests. It honors the same fire-and-forget contract:
// Start returns immediately and the CallStarted event arrives after
// StartDelay.
type SimBackend struct {
	// StartDelay is the simulated connect latency.
	StartDelay time.Duration

	// StartErr makes Start fail synchronously.
	StartErr error

	// SayErr makes Say fail synchronously.
	SayErr error

	// DropCallStarted suppresses the CallStarted event, leaving the
	// session stuck in connecting. Used to exercise the connect timeout.
	DropCallStarted bool

	logger log.Logger
	events chan Event

	mu     sync.Mutex
	inCall bool
}

var _ Backend = (*SimBackend)(nil)

// NewSimBackend creates a simulator with a short connect latency.
func NewSimBackend(logger log.Logger) *SimBackend {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &SimBackend{
		StartDelay: 10 * time.Millisecond,
		logger:     logger.WithName("voice-sim"),
		events:     make(chan Event, 32),
	}
}

func (b *SimBackend) Start(ctx context.Context, assistantID string, metadata map[string]string) error {
	if b.StartErr != nil {
		return b.StartErr
	}

	b.mu.Lock()
	b.inCall = true
	b.mu.Unlock()

	b.logger.Info("Simulated session start", "assistantID", assistantID, "metadata", metadata)

	if b.DropCallStarted {
		return nil
	}

	delay := b.StartDelay
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		b.emit(Event{Type: EventCallStarted})
	}()
	return nil
}

func (b *SimBackend) Say(ctx context.Context, text string, endCallAfterSpoken bool) error {
	if b.SayErr != nil {
		return b.SayErr
	}

	b.mu.Lock()
	inCall := b.inCall
	b.mu.Unlock()
	if !inCall {
		return nil
	}

	b.logger.Info("Simulated speech", "text", text, "endCallAfterSpoken", endCallAfterSpoken)
	b.emit(Event{Type: EventSpeechStarted})
	b.emit(Event{Type: EventSpeechEnded})

	if endCallAfterSpoken {
		b.endCall()
	}
	return nil
}

func (b *SimBackend) Stop(ctx context.Context) error {
	b.endCall()
	return nil
}

func (b *SimBackend) Events() <-chan Event {
	return b.events
}

// Fail injects an asynchronous backend error, as the vendor would deliver
// one over its event stream.
func (b *SimBackend) Fail(err error) {
	b.emit(Event{Type: EventError, Err: err})
}

func (b *SimBackend) endCall() {
	b.mu.Lock()
	wasInCall := b.inCall
	b.inCall = false
	b.mu.Unlock()

	if wasInCall {
		b.emit(Event{Type: EventCallEnded})
	}
}

func (b *SimBackend) emit(e Event) {
	select {
	case b.events <- e:
	default:
		b.logger.Warn("Event buffer full, dropping", "type", e.Type)
	}
}
