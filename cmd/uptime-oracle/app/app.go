package app

import (
	"fmt"

	"github.com/uptime-oracle/uptime-oracle/cmd/uptime-oracle/app/options"
	"github.com/uptime-oracle/uptime-oracle/pkg/app"
	"github.com/uptime-oracle/uptime-oracle/pkg/log"
)

const (
	commandName = "uptime-oracle"
	commandDesc = `The Uptime Oracle dashboard server watches a vehicle telematics
snapshot, raises alerts for injected trouble codes, drives voice
diagnostic sessions against the assistant vendor, and records
dispatched repairs in the maintenance ledger.`
)

func NewApp() *app.App {
	opts := options.NewDashboardOptions()
	application := app.NewApp(
		commandName,
		"Launch the vehicle telematics dashboard server",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithSubcommands(newVehiclesCommand()),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.DashboardOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()

		ctx := app.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		d, err := cfg.New()
		if err != nil {
			return fmt.Errorf("failed to create dashboard: %w", err)
		}

		return d.Run(ctx)
	}
}
