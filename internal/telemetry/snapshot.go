package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrSnapshotLoad reports an unreadable or malformed snapshot.
var ErrSnapshotLoad = errors.New("telemetry: snapshot load failed")

// Reading is one vehicle's row from the telemetry snapshot. The field set
// is the authoritative schema; a snapshot missing any of these columns is
// rejected at load time. Columns beyond the schema are kept in Extra.
type Reading struct {
	VehicleID      string  `json:"vehicle_id"`
	Timestamp      string  `json:"timestamp"`
	SpeedMPH       float64 `json:"speed_mph"`
	EngineRPM      float64 `json:"engine_rpm"`
	EngineLoadPct  float64 `json:"engine_load_pct"`
	CoolantTempF   float64 `json:"coolant_temp_f"`
	FuelLevelPct   float64 `json:"fuel_level_pct"`
	BatteryVoltage float64 `json:"battery_voltage"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	OdometerMiles  float64 `json:"odometer_miles"`
	TroubleCodes   string  `json:"trouble_codes"`

	Extra map[string]Value `json:"extra,omitempty"`
}

// Healthy reports whether the reading carries no trouble code.
func (r Reading) Healthy() bool {
	return r.TroubleCodes == ""
}

// Clone returns a copy whose Extra map is independent of the receiver's,
// so callers can hold or mutate it freely.
func (r Reading) Clone() Reading {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]Value, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// schemaColumns lists the required snapshot header, in no particular order.
var schemaColumns = []string{
	"vehicle_id",
	"timestamp",
	"speed_mph",
	"engine_rpm",
	"engine_load_pct",
	"coolant_temp_f",
	"fuel_level_pct",
	"battery_voltage",
	"latitude",
	"longitude",
	"odometer_miles",
	"trouble_codes",
}

// ParseSnapshot decodes a CSV telemetry snapshot into one Reading per row.
// The header must contain every schema column; rows with a column-count
// mismatch or an unparseable numeric cell fail the whole load.
func ParseSnapshot(r io.Reader) ([]Reading, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header: %v", ErrSnapshotLoad, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range schemaColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: header missing column %q", ErrSnapshotLoad, col)
		}
	}

	var readings []Reading
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			// encoding/csv enforces the header's column count, so a
			// ragged row surfaces here.
			return nil, fmt.Errorf("%w: line %d: %v", ErrSnapshotLoad, line, err)
		}

		reading, err := decodeRow(record, header, index)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSnapshotLoad, line, err)
		}
		readings = append(readings, reading)
	}

	return readings, nil
}

func decodeRow(record, header []string, index map[string]int) (Reading, error) {
	cell := func(col string) string {
		return strings.TrimSpace(record[index[col]])
	}

	num := func(col string) (float64, error) {
		raw := cell(col)
		if raw == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %q is not numeric", col, raw)
		}
		return n, nil
	}

	r := Reading{
		VehicleID:    cell("vehicle_id"),
		Timestamp:    cell("timestamp"),
		TroubleCodes: cell("trouble_codes"),
	}
	if r.VehicleID == "" {
		return Reading{}, fmt.Errorf("missing vehicle_id")
	}

	var err error
	numeric := []struct {
		col string
		dst *float64
	}{
		{"speed_mph", &r.SpeedMPH},
		{"engine_rpm", &r.EngineRPM},
		{"engine_load_pct", &r.EngineLoadPct},
		{"coolant_temp_f", &r.CoolantTempF},
		{"fuel_level_pct", &r.FuelLevelPct},
		{"battery_voltage", &r.BatteryVoltage},
		{"latitude", &r.Latitude},
		{"longitude", &r.Longitude},
		{"odometer_miles", &r.OdometerMiles},
	}
	for _, f := range numeric {
		if *f.dst, err = num(f.col); err != nil {
			return Reading{}, err
		}
	}

	// Extra columns keep the original loose typing.
	known := make(map[string]bool, len(schemaColumns))
	for _, col := range schemaColumns {
		known[col] = true
	}
	for i, h := range header {
		name := strings.TrimSpace(h)
		if known[name] {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]Value)
		}
		r.Extra[name] = SniffValue(record[i])
	}

	return r, nil
}
