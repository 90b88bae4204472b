package telemetry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSnapshot = `vehicle_id,timestamp,speed_mph,engine_rpm,engine_load_pct,coolant_temp_f,fuel_level_pct,battery_voltage,latitude,longitude,odometer_miles,trouble_codes
V-101,2026-02-12T08:30:00Z,42.5,1850,31.2,196,68.4,12.6,28.5383,-81.3792,45012,
V-102,2026-02-12T08:30:00Z,0,0,0,71,92.1,12.8,28.5411,-81.3810,12044,P0420
`

func TestParseSnapshot(t *testing.T) {
	readings, err := ParseSnapshot(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)
	require.Len(t, readings, 2)

	r := readings[0]
	assert.Equal(t, "V-101", r.VehicleID)
	assert.Equal(t, "2026-02-12T08:30:00Z", r.Timestamp)
	assert.InDelta(t, 42.5, r.SpeedMPH, 1e-9)
	assert.InDelta(t, 1850, r.EngineRPM, 1e-9)
	assert.InDelta(t, 12.6, r.BatteryVoltage, 1e-9)
	assert.Empty(t, r.TroubleCodes)
	assert.True(t, r.Healthy())

	assert.Equal(t, "P0420", readings[1].TroubleCodes)
	assert.False(t, readings[1].Healthy())
}

func TestParseSnapshotMissingColumn(t *testing.T) {
	csv := "vehicle_id,timestamp\nV-101,now\n"
	_, err := ParseSnapshot(strings.NewReader(csv))
	require.ErrorIs(t, err, ErrSnapshotLoad)
	assert.Contains(t, err.Error(), "missing column")
}

func TestParseSnapshotRaggedRow(t *testing.T) {
	csv := sampleSnapshot + "V-103,short-row\n"
	_, err := ParseSnapshot(strings.NewReader(csv))
	require.ErrorIs(t, err, ErrSnapshotLoad)
}

func TestParseSnapshotBadNumber(t *testing.T) {
	bad := strings.Replace(sampleSnapshot, "42.5", "fast", 1)
	_, err := ParseSnapshot(strings.NewReader(bad))
	require.ErrorIs(t, err, ErrSnapshotLoad)
	assert.Contains(t, err.Error(), "speed_mph")
}

func TestParseSnapshotEmptyInput(t *testing.T) {
	_, err := ParseSnapshot(strings.NewReader(""))
	require.ErrorIs(t, err, ErrSnapshotLoad)
}

func TestParseSnapshotExtraColumns(t *testing.T) {
	csv := `vehicle_id,timestamp,speed_mph,engine_rpm,engine_load_pct,coolant_temp_f,fuel_level_pct,battery_voltage,latitude,longitude,odometer_miles,trouble_codes,fleet,tire_psi
V-101,now,10,900,12,180,50,12.4,0,0,100,,east,32.5
`
	readings, err := ParseSnapshot(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, readings, 1)

	extra := readings[0].Extra
	require.NotNil(t, extra)
	assert.False(t, extra["fleet"].IsNum)
	assert.Equal(t, "east", extra["fleet"].Text)
	assert.True(t, extra["tire_psi"].IsNum)
	assert.InDelta(t, 32.5, extra["tire_psi"].Number, 1e-9)
}

func TestSniffValue(t *testing.T) {
	assert.True(t, SniffValue("12.5").IsNum)
	assert.True(t, SniffValue(" 7 ").IsNum)
	assert.False(t, SniffValue("P0300").IsNum)
	assert.False(t, SniffValue("").IsNum)
}
