package voice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uptime-oracle/uptime-oracle/pkg/log"
)

func newTestController(t *testing.T, backend *SimBackend, connectTimeout time.Duration) (*Controller, context.CancelFunc) {
	t.Helper()
	c := NewController(backend, "asst-test", connectTimeout, log.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = c.Run(ctx) }()
	t.Cleanup(cancel)
	return c, cancel
}

func waitForState(t *testing.T, c *Controller, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.State() == want
	}, 2*time.Second, 5*time.Millisecond, "state never reached %s", want)
}

func TestControllerLifecycle(t *testing.T) {
	backend := NewSimBackend(log.NewNopLogger())
	c, _ := newTestController(t, backend, time.Second)

	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.Visible())

	require.NoError(t, c.Start(context.Background(), "V-101", "P0300", TriggerFault))
	assert.True(t, c.Visible())
	waitForState(t, c, StateActive)
	assert.True(t, c.Visible())

	got := c.Session()
	assert.Equal(t, "V-101", got.VehicleID)
	assert.Equal(t, "P0300", got.FaultCode)

	require.NoError(t, c.SpeakAndEnd(context.Background(), "Repair initiated. Closing diagnostic link now."))
	waitForState(t, c, StateIdle)
	assert.False(t, c.Visible())
	assert.Empty(t, c.Session().VehicleID)
}

func TestControllerRejectsConcurrentStart(t *testing.T) {
	backend := NewSimBackend(log.NewNopLogger())
	c, _ := newTestController(t, backend, time.Second)

	require.NoError(t, c.Start(context.Background(), "V-101", "", TriggerManual))
	waitForState(t, c, StateActive)

	err := c.Start(context.Background(), "V-102", "P0420", TriggerManual)
	require.ErrorIs(t, err, ErrSessionBusy)

	// The open session is untouched by the rejected start.
	assert.Equal(t, StateActive, c.State())
	assert.Equal(t, "V-101", c.Session().VehicleID)
}

func TestControllerStopIdempotentInIdle(t *testing.T) {
	backend := NewSimBackend(log.NewNopLogger())
	c, _ := newTestController(t, backend, time.Second)

	require.NoError(t, c.Stop(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.Visible())
}

func TestControllerStopEndsOpenSession(t *testing.T) {
	backend := NewSimBackend(log.NewNopLogger())
	c, _ := newTestController(t, backend, time.Second)

	require.NoError(t, c.Start(context.Background(), "V-101", "", TriggerManual))
	waitForState(t, c, StateActive)

	require.NoError(t, c.Stop(context.Background()))
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.Visible())

	// A fresh session can open after the stop.
	waitForState(t, c, StateIdle)
	require.NoError(t, c.Start(context.Background(), "V-101", "", TriggerManual))
	waitForState(t, c, StateActive)
}

func TestControllerConnectTimeout(t *testing.T) {
	backend := NewSimBackend(log.NewNopLogger())
	backend.DropCallStarted = true
	c, _ := newTestController(t, backend, 50*time.Millisecond)

	require.NoError(t, c.Start(context.Background(), "V-101", "", TriggerManual))
	assert.Equal(t, StateConnecting, c.State())
	assert.True(t, c.Visible())

	waitForState(t, c, StateIdle)
	assert.False(t, c.Visible())
}

func TestControllerStartRequestFailure(t *testing.T) {
	backend := NewSimBackend(log.NewNopLogger())
	backend.StartErr = errors.New("vendor unreachable")
	c, _ := newTestController(t, backend, time.Second)

	require.NoError(t, c.Start(context.Background(), "V-101", "", TriggerManual))
	waitForState(t, c, StateIdle)
	assert.False(t, c.Visible())
}

func TestControllerBackendErrorCollapsesToIdle(t *testing.T) {
	backend := NewSimBackend(log.NewNopLogger())
	c, _ := newTestController(t, backend, time.Second)

	require.NoError(t, c.Start(context.Background(), "V-101", "P0300", TriggerFault))
	waitForState(t, c, StateActive)

	backend.Fail(errors.New("stream dropped"))
	waitForState(t, c, StateIdle)
	assert.False(t, c.Visible())
}

func TestControllerSpeakRequiresActive(t *testing.T) {
	backend := NewSimBackend(log.NewNopLogger())
	c, _ := newTestController(t, backend, time.Second)

	err := c.SpeakAndEnd(context.Background(), "hello")
	require.ErrorIs(t, err, ErrNotActive)
}

func TestControllerForceIdle(t *testing.T) {
	backend := NewSimBackend(log.NewNopLogger())
	c, _ := newTestController(t, backend, time.Second)

	require.NoError(t, c.Start(context.Background(), "V-101", "P0300", TriggerFault))
	waitForState(t, c, StateActive)

	c.ForceIdle("error")
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.Visible())

	c.ForceIdle("error")
	assert.Equal(t, StateIdle, c.State())
}
