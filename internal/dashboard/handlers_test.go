package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uptime-oracle/uptime-oracle/internal/alert"
	"github.com/uptime-oracle/uptime-oracle/internal/maintenance"
	"github.com/uptime-oracle/uptime-oracle/internal/voice"
	"github.com/uptime-oracle/uptime-oracle/pkg/log"
	"github.com/uptime-oracle/uptime-oracle/pkg/options"
)

const testSnapshot = `vehicle_id,timestamp,speed_mph,engine_rpm,engine_load_pct,coolant_temp_f,fuel_level_pct,battery_voltage,latitude,longitude,odometer_miles,trouble_codes
V-101,2026-08-30T10:15:00Z,42.5,1850,33.2,198.4,76.1,13.9,37.7749,-122.4194,48211.7,
V-102,2026-08-30T10:15:00Z,0,0,0,85.0,12.4,11.8,34.0522,-118.2437,103554.2,P0420
`

func newTestDashboard(t *testing.T) *Dashboard {
	t.Helper()

	path := filepath.Join(t.TempDir(), "telematics_snapshot.csv")
	require.NoError(t, os.WriteFile(path, []byte(testSnapshot), 0o644))

	telemetryOpts := options.NewTelemetryOptions()
	telemetryOpts.SnapshotPath = path

	voiceOpts := options.NewVoiceOptions()
	voiceOpts.Simulate = true
	voiceOpts.ConnectTimeout = time.Second

	cfg := &Config{
		Telemetry: telemetryOpts,
		Http:      options.NewHttpOptions(),
		Voice:     voiceOpts,
		Speech:    options.NewSpeechOptions(),
		Logger:    log.NewNopLogger(),
	}

	d, err := cfg.New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.controller.Run(ctx) }()
	t.Cleanup(cancel)
	return d
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func waitForSession(t *testing.T, d *Dashboard, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return d.controller.State() == want
	}, 2*time.Second, 5*time.Millisecond, "session never reached %s", want)
}

func TestFaultInjectionRaisesAlertAndSession(t *testing.T) {
	d := newTestDashboard(t)
	router := d.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/fault", `{"code":"P0300"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var a alert.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "P0300", a.Code)
	assert.Equal(t, "Random/Multiple Cylinder Misfire Detected", a.Message)
	assert.Equal(t, alert.SeverityCritical, a.Severity)
	assert.True(t, a.Active)

	// A new critical alert during simulation opens a session on its own.
	waitForSession(t, d, voice.StateActive)

	st := d.State()
	assert.True(t, st.Simulating)
	assert.True(t, st.SessionVisible)
	require.NotNil(t, st.Session)
	assert.Equal(t, "P0300", st.Session.FaultCode)
	require.NotNil(t, st.Reading)
	assert.Equal(t, "P0300", st.Reading.TroubleCodes)
}

func TestRepeatedFaultDoesNotDuplicateAlert(t *testing.T) {
	d := newTestDashboard(t)
	router := d.Router()

	for i := 0; i < 5; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/fault", `{"code":"P0300"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	assert.Equal(t, 1, d.alerts.ActiveCount())
}

func TestRepairResolvesAlertAndRecordsService(t *testing.T) {
	d := newTestDashboard(t)
	router := d.Router()

	doJSON(t, router, http.MethodPost, "/api/v1/fault", `{"code":"P0300"}`)
	waitForSession(t, d, voice.StateActive)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/repair", `{"code":"P0300"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var record maintenance.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "V-101", record.VehicleID)
	assert.Equal(t, "Misfire Diagnosis & Coil Replacement", record.Service)
	assert.Equal(t, maintenance.StatusCompleted, record.Status)

	assert.Equal(t, 0, d.alerts.ActiveCount())
	assert.Equal(t, voice.StateIdle, d.controller.State())
	assert.False(t, d.controller.Visible())

	// The fault is gone from the reading but the alert stays in history.
	reading, err := d.source.Current()
	require.NoError(t, err)
	assert.Empty(t, reading.TroubleCodes)
	found := false
	for _, a := range d.alerts.Alerts() {
		if a.Code == "P0300" && !a.Active {
			found = true
		}
	}
	assert.True(t, found, "resolved alert kept in history")
}

func TestRepairSurvivesVoiceFailure(t *testing.T) {
	d := newTestDashboard(t)
	router := d.Router()

	doJSON(t, router, http.MethodPost, "/api/v1/fault", `{"code":"P0300"}`)
	waitForSession(t, d, voice.StateActive)

	// Break the voice channel before dispatching the repair.
	sim, ok := d.controller.Backend().(*voice.SimBackend)
	require.True(t, ok)
	sim.SayErr = assert.AnError

	rec := doJSON(t, router, http.MethodPost, "/api/v1/repair", `{"code":"P0300"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, d.records.Len())
	assert.Equal(t, 0, d.alerts.ActiveCount())
	assert.Equal(t, voice.StateIdle, d.controller.State())
}

func TestManualSessionLifecycle(t *testing.T) {
	d := newTestDashboard(t)
	router := d.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/session", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitForSession(t, d, voice.StateActive)

	// A second start is rejected without touching the open session.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/session", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, voice.StateActive, d.controller.State())

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/session", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, voice.StateIdle, d.controller.State())
}

func TestClearThenReinjectRaisesFreshAlert(t *testing.T) {
	d := newTestDashboard(t)
	router := d.Router()

	doJSON(t, router, http.MethodPost, "/api/v1/fault", `{"code":"P0300"}`)
	faultAlerts := d.alerts.Len()

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/fault", "")
	require.Equal(t, http.StatusOK, rec.Code)

	reading, err := d.source.Current()
	require.NoError(t, err)
	assert.Empty(t, reading.TroubleCodes)
	assert.Equal(t, 0, d.alerts.ActiveCount())

	// Dedup is per active-state: the cleared alert no longer blocks a
	// new one for the same code.
	doJSON(t, router, http.MethodPost, "/api/v1/fault", `{"code":"P0300"}`)
	assert.Equal(t, 1, d.alerts.ActiveCount())
	assert.Equal(t, faultAlerts+1, d.alerts.Len())
}

func TestClearResolvesOverwrittenFaults(t *testing.T) {
	d := newTestDashboard(t)
	router := d.Router()

	// The second inject overwrites the reading's code, but both alerts
	// are active.
	doJSON(t, router, http.MethodPost, "/api/v1/fault", `{"code":"P0300"}`)
	doJSON(t, router, http.MethodPost, "/api/v1/fault", `{"code":"P0420"}`)
	require.Equal(t, 2, d.alerts.ActiveCount())

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/fault", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, d.alerts.ActiveCount())

	// The no-longer-visible code is resolved too, so it can re-trigger.
	ledgerLen := d.alerts.Len()
	doJSON(t, router, http.MethodPost, "/api/v1/fault", `{"code":"P0300"}`)
	assert.Equal(t, 1, d.alerts.ActiveCount())
	assert.Equal(t, ledgerLen+1, d.alerts.Len())
}

func TestUnmappedCodeGetsGenericMessage(t *testing.T) {
	d := newTestDashboard(t)
	router := d.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/fault", `{"code":"P0444"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var a alert.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "Trouble Code P0444 Detected", a.Message)
}

func TestAlertsEndpointSeededWithBaseline(t *testing.T) {
	d := newTestDashboard(t)
	router := d.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var alerts []alert.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.Equal(t, alert.SeverityInfo, a.Severity)
		assert.False(t, a.Active)
	}
}

func TestFaultValidation(t *testing.T) {
	d := newTestDashboard(t)
	router := d.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/fault", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/repair", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	d := newTestDashboard(t)
	router := d.Router()

	rec := doJSON(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
