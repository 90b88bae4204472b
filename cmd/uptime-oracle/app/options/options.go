package options

import (
	"github.com/spf13/cobra"

	"github.com/uptime-oracle/uptime-oracle/internal/dashboard"
	"github.com/uptime-oracle/uptime-oracle/pkg/app"
	"github.com/uptime-oracle/uptime-oracle/pkg/log"
	"github.com/uptime-oracle/uptime-oracle/pkg/options"
)

// DashboardOptions aggregates the flag groups of the dashboard server.
type DashboardOptions struct {
	Telemetry *options.TelemetryOptions `json:"telemetry" mapstructure:"telemetry"`
	Http      *options.HttpOptions      `json:"http" mapstructure:"http"`
	Voice     *options.VoiceOptions     `json:"voice" mapstructure:"voice"`
	Speech    *options.SpeechOptions    `json:"speech" mapstructure:"speech"`
	Log       *log.Options              `json:"log" mapstructure:"log"`
}

var _ app.Options = (*DashboardOptions)(nil)

func NewDashboardOptions() *DashboardOptions {
	return &DashboardOptions{
		Telemetry: options.NewTelemetryOptions(),
		Http:      options.NewHttpOptions(),
		Voice:     options.NewVoiceOptions(),
		Speech:    options.NewSpeechOptions(),
		Log:       log.NewOptions(),
	}
}

func (o *DashboardOptions) AddFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	o.Telemetry.AddFlags(fs)
	o.Http.AddFlags(fs)
	o.Voice.AddFlags(fs)
	o.Speech.AddFlags(fs)
	o.Log.AddFlags(fs)
}

func (o *DashboardOptions) Complete() error {
	o.Speech.Complete()
	return nil
}

func (o *DashboardOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.Telemetry.Validate()...)
	errs = append(errs, o.Http.Validate()...)
	errs = append(errs, o.Voice.Validate()...)
	errs = append(errs, o.Speech.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return app.AggregateErrors(errs)
}

func (o *DashboardOptions) Config() (*dashboard.Config, error) {
	return &dashboard.Config{
		Telemetry: o.Telemetry,
		Http:      o.Http,
		Voice:     o.Voice,
		Speech:    o.Speech,
	}, nil
}
