package voice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/uptime-oracle/uptime-oracle/internal/pkg/metrics"
	fsmutil "github.com/uptime-oracle/uptime-oracle/internal/pkg/util/fsm"
	"github.com/uptime-oracle/uptime-oracle/pkg/log"
)

// Session states.
const (
	StateIdle       = "idle"
	StateConnecting = "connecting"
	StateActive     = "active"
)

// State machine events. callStarted/callEnded are driven by the backend's
// event stream, the rest by explicit commands.
const (
	eventStart       = "start"
	eventCallStarted = "call_started"
	eventCallEnded   = "call_ended"
	eventStop        = "stop"
	eventFail        = "fail"
)

var (
	// ErrSessionBusy rejects a start while a session is already open.
	ErrSessionBusy = errors.New("voice: session already open")

	// ErrNotActive rejects speech outside the active state.
	ErrNotActive = errors.New("voice: session not active")
)

// StartTrigger labels what initiated a session, for logs and metrics.
type StartTrigger string

const (
	TriggerManual StartTrigger = "manual"
	TriggerFault  StartTrigger = "fault"
)

// Session describes the currently open session.
type Session struct {
	VehicleID string    `json:"vehicle_id"`
	FaultCode string    `json:"fault_code,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Controller owns the voice session lifecycle: Idle → Connecting → Active
// → Idle, with every error path collapsing back to Idle. At most one
// session is open at a time; a start while one is open is rejected with
// ErrSessionBusy rather than silently re-issued.
type Controller struct {
	backend        Backend
	assistantID    string
	connectTimeout time.Duration
	logger         log.Logger

	mu           sync.Mutex
	machine      *fsm.FSM
	visible      bool
	session      Session
	connectTimer *time.Timer
	startCancel  context.CancelFunc
}

// NewController creates a Controller in the idle state.
func NewController(backend Backend, assistantID string, connectTimeout time.Duration, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	c := &Controller{
		backend:        backend,
		assistantID:    assistantID,
		connectTimeout: connectTimeout,
		logger:         logger.WithName("voice"),
	}

	events := fsm.Events{
		{Name: eventStart, Src: []string{StateIdle}, Dst: StateConnecting},
		{Name: eventCallStarted, Src: []string{StateConnecting}, Dst: StateActive},
		{Name: eventCallEnded, Src: []string{StateConnecting, StateActive}, Dst: StateIdle},
		{Name: eventStop, Src: []string{StateConnecting, StateActive}, Dst: StateIdle},
		{Name: eventFail, Src: []string{StateConnecting, StateActive}, Dst: StateIdle},
	}

	callbacks := fsm.Callbacks{
		// The visibility flag is the only signal the UI consumes: raised
		// on both Connecting and Active, retracted only on Idle.
		"enter_" + StateConnecting: fsmutil.WrapEvent(c.enterConnecting),
		"enter_" + StateActive:     fsmutil.WrapEvent(c.enterActive),
		"enter_" + StateIdle:       fsmutil.WrapEvent(c.enterIdle),
	}

	c.machine = fsm.NewFSM(StateIdle, events, callbacks)
	metrics.SetSessionState(StateIdle)
	return c
}

// Backend exposes the underlying backend.
func (c *Controller) Backend() Backend {
	return c.backend
}

// State returns the current session state.
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Current()
}

// Visible reports whether the session overlay should be shown.
func (c *Controller) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Session returns the currently open session context. Meaningful only
// outside the idle state.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Start opens a session bound to the vehicle and, optionally, a fault
// code. Valid only from idle; any open session makes it fail with
// ErrSessionBusy without disturbing that session.
func (c *Controller) Start(ctx context.Context, vehicleID, faultCode string, trigger StartTrigger) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.Current() != StateIdle {
		return ErrSessionBusy
	}

	c.session = Session{VehicleID: vehicleID, FaultCode: faultCode, StartedAt: time.Now()}
	if err := c.machine.Event(ctx, eventStart); err != nil {
		c.session = Session{}
		return err
	}

	metrics.SessionsStartedTotal.WithLabelValues(string(trigger)).Inc()
	c.logger.Info("Session starting", "vehicleID", vehicleID, "faultCode", faultCode, "trigger", trigger)

	metadata := map[string]string{"vehicle_id": vehicleID}
	if faultCode != "" {
		metadata["trouble_code"] = faultCode
	}

	// Fire and forget: the backend reports arrival or failure on its
	// event stream. A synchronous failure to issue the request is folded
	// into the same error path. The request outlives the caller's
	// context but not the connecting state: leaving it cancels any start
	// still in flight.
	startCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.startCancel = cancel
	go func() {
		if err := c.backend.Start(startCtx, c.assistantID, metadata); err != nil {
			if errors.Is(err, context.Canceled) {
				// The session already left connecting; nothing to fail.
				return
			}
			c.logger.Error(err, "Session start request failed")
			c.failSession(err, "error")
		}
	}()

	return nil
}

// SpeakAndEnd instructs the backend to synthesize text and terminate the
// session after playback. Valid only from active; the transition to idle
// is driven by the backend's call-ended event, not by this call.
func (c *Controller) SpeakAndEnd(ctx context.Context, text string) error {
	c.mu.Lock()
	if c.machine.Current() != StateActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	c.mu.Unlock()

	return c.backend.Say(ctx, text, true)
}

// Stop forces the session back to idle, discarding any in-flight speech.
// A stop with no open session is a no-op.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.machine.Current() == StateIdle {
		c.mu.Unlock()
		return nil
	}
	if err := c.machine.Event(ctx, eventStop); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	metrics.SessionsEndedTotal.WithLabelValues("stopped").Inc()
	go func() {
		if err := c.backend.Stop(context.Background()); err != nil {
			c.logger.Error(err, "Backend stop failed")
		}
	}()
	return nil
}

// ForceIdle unconditionally lands the controller in idle with visibility
// retracted, regardless of what the backend has or has not acknowledged.
// Used by repair, which must not stay blocked on the voice vendor.
func (c *Controller) ForceIdle(reason string) {
	c.mu.Lock()
	if c.machine.Current() == StateIdle {
		c.mu.Unlock()
		return
	}
	_ = c.machine.Event(context.Background(), eventStop)
	c.mu.Unlock()

	metrics.SessionsEndedTotal.WithLabelValues(reason).Inc()
	go func() {
		if err := c.backend.Stop(context.Background()); err != nil {
			c.logger.Error(err, "Backend stop failed")
		}
	}()
}

// Run consumes the backend's event stream and drives the state machine.
// Every inbound variant is handled; blocks until ctx is cancelled or the
// stream closes.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-c.backend.Events():
			if !ok {
				return nil
			}
			c.handleBackendEvent(ctx, event)
		}
	}
}

func (c *Controller) handleBackendEvent(ctx context.Context, event Event) {
	switch event.Type {
	case EventCallStarted:
		c.mu.Lock()
		if c.machine.Current() != StateConnecting {
			// Stale or duplicate signal after a stop; ignore.
			c.mu.Unlock()
			return
		}
		if err := c.machine.Event(ctx, eventCallStarted); err != nil {
			c.logger.Error(err, "Transition to active failed")
		}
		c.mu.Unlock()

	case EventCallEnded:
		c.mu.Lock()
		if c.machine.Current() == StateIdle {
			c.mu.Unlock()
			return
		}
		if err := c.machine.Event(ctx, eventCallEnded); err != nil {
			c.logger.Error(err, "Transition to idle failed")
		}
		c.mu.Unlock()
		metrics.SessionsEndedTotal.WithLabelValues("ended").Inc()

	case EventError:
		// Recovered locally: collapse to idle, report, don't re-raise.
		c.logger.Error(event.Err, "Voice backend error")
		c.failSession(event.Err, "error")

	case EventSpeechStarted:
		c.logger.Debug("Assistant speech started")
	case EventSpeechEnded:
		c.logger.Debug("Assistant speech ended")
	case EventVolumeLevel:
		if event.Volume > 0.05 {
			c.logger.Debug("Volume level", "volume", event.Volume)
		}
	case EventMessage:
		c.logger.Debug("Assistant message", "payload", string(event.Payload))
	default:
		c.logger.Warn("Unknown backend event", "type", event.Type)
	}
}

func (c *Controller) failSession(err error, reason string) {
	c.mu.Lock()
	if c.machine.Current() == StateIdle {
		c.mu.Unlock()
		return
	}
	if terr := c.machine.Event(context.Background(), eventFail); terr != nil {
		c.logger.Error(terr, "Transition to idle failed")
	}
	c.mu.Unlock()
	metrics.SessionsEndedTotal.WithLabelValues(reason).Inc()
}

func (c *Controller) enterConnecting(ctx context.Context, e *fsm.Event) error {
	c.visible = true
	metrics.SetSessionState(StateConnecting)

	// Bound the wait for the backend's call-started signal so a session
	// can never sit in connecting forever.
	if c.connectTimeout > 0 {
		started := c.session.StartedAt
		c.connectTimer = time.AfterFunc(c.connectTimeout, func() {
			c.connectTimedOut(started)
		})
	}
	return nil
}

func (c *Controller) enterActive(ctx context.Context, e *fsm.Event) error {
	c.visible = true
	c.stopConnectTimer()
	c.releaseStartCancel()
	metrics.SetSessionState(StateActive)
	c.logger.Info("Session active", "vehicleID", c.session.VehicleID, "faultCode", c.session.FaultCode)
	return nil
}

func (c *Controller) enterIdle(ctx context.Context, e *fsm.Event) error {
	c.visible = false
	c.stopConnectTimer()
	c.releaseStartCancel()
	c.session = Session{}
	metrics.SetSessionState(StateIdle)
	c.logger.Info("Session idle")
	return nil
}

// releaseStartCancel must be called with c.mu held. Cancelling after the
// call went active is harmless; the established stream does not depend
// on the start context.
func (c *Controller) releaseStartCancel() {
	if c.startCancel != nil {
		c.startCancel()
		c.startCancel = nil
	}
}

// stopConnectTimer must be called with c.mu held.
func (c *Controller) stopConnectTimer() {
	if c.connectTimer != nil {
		c.connectTimer.Stop()
		c.connectTimer = nil
	}
}

func (c *Controller) connectTimedOut(startedAt time.Time) {
	c.mu.Lock()
	if c.machine.Current() != StateConnecting || !c.session.StartedAt.Equal(startedAt) {
		// A different session, or this one already progressed.
		c.mu.Unlock()
		return
	}
	c.logger.Warn("Session stuck in connecting, giving up", "timeout", c.connectTimeout)
	if err := c.machine.Event(context.Background(), eventFail); err != nil {
		c.logger.Error(err, "Transition to idle failed")
	}
	c.mu.Unlock()

	metrics.SessionsEndedTotal.WithLabelValues("timeout").Inc()
	go func() {
		if err := c.backend.Stop(context.Background()); err != nil {
			c.logger.Error(err, "Backend stop failed")
		}
	}()
}
