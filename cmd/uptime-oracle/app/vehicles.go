package app

import (
	"fmt"
	"os"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/uptime-oracle/uptime-oracle/internal/telemetry"
)

// newVehiclesCommand lists the vehicles in a snapshot file, for checking
// a snapshot before pointing the server at it.
func newVehiclesCommand() *cobra.Command {
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "List the vehicles found in a telematics snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(snapshotPath)
			if err != nil {
				return fmt.Errorf("failed to open snapshot: %w", err)
			}
			defer f.Close()

			readings, err := telemetry.ParseSnapshot(f)
			if err != nil {
				return err
			}

			table := uitable.New()
			table.AddRow("VEHICLE", "TIMESTAMP", "SPEED", "RPM", "FUEL%", "ODOMETER", "CODES", "HEALTH")
			for _, r := range readings {
				health := "OK"
				if !r.Healthy() {
					health = "FAULT"
				}
				table.AddRow(
					r.VehicleID,
					r.Timestamp,
					fmt.Sprintf("%.1f", r.SpeedMPH),
					fmt.Sprintf("%.0f", r.EngineRPM),
					fmt.Sprintf("%.1f", r.FuelLevelPct),
					fmt.Sprintf("%.1f", r.OdometerMiles),
					r.TroubleCodes,
					health,
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot-path", "telematics_snapshot.csv", "Path to the telematics snapshot CSV.")
	return cmd
}
