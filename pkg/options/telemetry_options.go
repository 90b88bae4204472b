package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

var _ IOptions = (*TelemetryOptions)(nil)

// TelemetryOptions configures the telemetry snapshot source.
type TelemetryOptions struct {
	// SnapshotPath is the CSV snapshot to load readings from.
	SnapshotPath string `json:"snapshot-path" mapstructure:"snapshot-path"`

	// VehicleID selects the vehicle row to expose as the current reading.
	VehicleID string `json:"vehicle-id" mapstructure:"vehicle-id"`

	// Watch re-loads the snapshot when the file changes on disk.
	// The default is a single load at startup.
	Watch bool `json:"watch" mapstructure:"watch"`
}

// NewTelemetryOptions creates a TelemetryOptions object with default parameters.
func NewTelemetryOptions() *TelemetryOptions {
	return &TelemetryOptions{
		SnapshotPath: "telematics_snapshot.csv",
		VehicleID:    "V-101",
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *TelemetryOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.SnapshotPath == "" {
		errors = append(errors, fmt.Errorf("telemetry snapshot path must not be empty"))
	}
	if o.VehicleID == "" {
		errors = append(errors, fmt.Errorf("telemetry vehicle id must not be empty"))
	}

	return errors
}

// AddFlags adds flags related to the telemetry source to the specified FlagSet.
func (o *TelemetryOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.SnapshotPath, "telemetry.snapshot-path", o.SnapshotPath, "Path to the CSV telemetry snapshot.")
	fs.StringVar(&o.VehicleID, "telemetry.vehicle-id", o.VehicleID, "Vehicle identifier to monitor.")
	fs.BoolVar(&o.Watch, "telemetry.watch", o.Watch, "Reload the snapshot when the file changes.")
}
