package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telematics_snapshot.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSourceLoad(t *testing.T) {
	src := NewSource(writeSnapshot(t, sampleSnapshot), "V-101", nil)
	require.NoError(t, src.Load())

	require.True(t, src.Loaded())
	reading, err := src.Current()
	require.NoError(t, err)
	assert.Equal(t, "V-101", reading.VehicleID)
	assert.False(t, src.Simulating())
}

func TestSourceLoadVehicleNotFound(t *testing.T) {
	src := NewSource(writeSnapshot(t, sampleSnapshot), "V-999", nil)
	err := src.Load()
	require.ErrorIs(t, err, ErrVehicleNotFound)

	// Source stays in the explicit unloaded state, never half-populated.
	assert.False(t, src.Loaded())
	_, err = src.Current()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestSourceLoadUnreadableFile(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "missing.csv"), "V-101", nil)
	err := src.Load()
	require.ErrorIs(t, err, ErrSnapshotLoad)
	assert.False(t, src.Loaded())
}

func TestSourceInjectAndClearFault(t *testing.T) {
	src := NewSource(writeSnapshot(t, sampleSnapshot), "V-101", nil)
	require.NoError(t, src.Load())

	before, err := src.Current()
	require.NoError(t, err)

	injected, err := src.InjectFault("P0300")
	require.NoError(t, err)
	assert.Equal(t, "P0300", injected.TroubleCodes)
	assert.True(t, src.Simulating())

	// Only the trouble code changes; the rest of the row is untouched.
	injected.TroubleCodes = before.TroubleCodes
	assert.Equal(t, before, injected)

	cleared, err := src.ClearFault()
	require.NoError(t, err)
	assert.Empty(t, cleared.TroubleCodes)
	assert.False(t, src.Simulating())
}

func TestSourceFaultBeforeLoad(t *testing.T) {
	src := NewSource(writeSnapshot(t, sampleSnapshot), "V-101", nil)

	_, err := src.InjectFault("P0300")
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = src.ClearFault()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestSourceCurrentReturnsCopy(t *testing.T) {
	src := NewSource(writeSnapshot(t, sampleSnapshot), "V-101", nil)
	require.NoError(t, src.Load())

	reading, err := src.Current()
	require.NoError(t, err)
	reading.TroubleCodes = "P9999"

	again, err := src.Current()
	require.NoError(t, err)
	assert.Empty(t, again.TroubleCodes)
}

func TestSourceCurrentExtraDoesNotAlias(t *testing.T) {
	const snapshot = `vehicle_id,timestamp,speed_mph,engine_rpm,engine_load_pct,coolant_temp_f,fuel_level_pct,battery_voltage,latitude,longitude,odometer_miles,trouble_codes,fleet
V-101,2026-02-12T08:30:00Z,42.5,1850,31.2,196,68.4,12.6,28.5383,-81.3792,45012,,east
`
	src := NewSource(writeSnapshot(t, snapshot), "V-101", nil)
	require.NoError(t, src.Load())

	reading, err := src.Current()
	require.NoError(t, err)
	require.NotNil(t, reading.Extra)
	reading.Extra["fleet"] = SniffValue("tampered")

	again, err := src.Current()
	require.NoError(t, err)
	assert.Equal(t, "east", again.Extra["fleet"].Text)
}
