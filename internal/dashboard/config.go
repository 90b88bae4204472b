package dashboard

import (
	"github.com/uptime-oracle/uptime-oracle/internal/alert"
	"github.com/uptime-oracle/uptime-oracle/internal/maintenance"
	"github.com/uptime-oracle/uptime-oracle/internal/speech"
	"github.com/uptime-oracle/uptime-oracle/internal/telemetry"
	"github.com/uptime-oracle/uptime-oracle/internal/voice"
	"github.com/uptime-oracle/uptime-oracle/pkg/log"
	"github.com/uptime-oracle/uptime-oracle/pkg/options"
)

// Config aggregates everything the dashboard needs to run.
type Config struct {
	Telemetry *options.TelemetryOptions
	Http      *options.HttpOptions
	Voice     *options.VoiceOptions
	Speech    *options.SpeechOptions

	Logger log.Logger
}

// New assembles a Dashboard from the config: telemetry source, the two
// ledgers, the voice controller and the speech proxy, wired to a single
// HTTP server.
func (c *Config) New() (*Dashboard, error) {
	logger := c.Logger
	if logger == nil {
		logger = log.Std()
	}

	source := telemetry.NewSource(c.Telemetry.SnapshotPath, c.Telemetry.VehicleID, logger)
	if err := source.Load(); err != nil {
		return nil, err
	}

	alerts := alert.NewLedger(logger, alert.Baseline(nowFunc())...)
	records := maintenance.NewLedger(logger)

	var backend voice.Backend
	if c.Voice.Simulate {
		backend = voice.NewSimBackend(logger)
	} else {
		backend = voice.NewClient(c.Voice.BaseURL, c.Voice.PublicKey, logger)
	}
	controller := voice.NewController(backend, c.Voice.AssistantID, c.Voice.ConnectTimeout, logger)

	d := &Dashboard{
		httpOpts:    c.Http,
		watch:       c.Telemetry.Watch,
		source:      source,
		alerts:      alerts,
		records:     records,
		controller:  controller,
		speechProxy: speech.NewProxy(c.Speech, logger),
		logger:      logger.WithName("dashboard"),
	}
	return d, nil
}
