// Package dashboard ties the telemetry source, the alert and maintenance
// ledgers, and the voice session controller into one service behind an
// HTTP API.
package dashboard

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/uptime-oracle/uptime-oracle/internal/alert"
	"github.com/uptime-oracle/uptime-oracle/internal/maintenance"
	"github.com/uptime-oracle/uptime-oracle/internal/pkg/metrics"
	"github.com/uptime-oracle/uptime-oracle/internal/speech"
	"github.com/uptime-oracle/uptime-oracle/internal/telemetry"
	"github.com/uptime-oracle/uptime-oracle/internal/voice"
	"github.com/uptime-oracle/uptime-oracle/pkg/log"
	"github.com/uptime-oracle/uptime-oracle/pkg/options"
)

// repairSpeech is spoken over the voice session when a repair is
// dispatched, after which the session ends.
const repairSpeech = "Repair initiated. Closing diagnostic link now."

// nowFunc is swapped in tests.
var nowFunc = time.Now

// Dashboard is the top-level orchestrator.
type Dashboard struct {
	httpOpts *options.HttpOptions
	watch    bool

	source      *telemetry.Source
	alerts      *alert.Ledger
	records     *maintenance.Ledger
	controller  *voice.Controller
	speechProxy *speech.Proxy
	logger      log.Logger
}

// State is the aggregate snapshot served by the state endpoint.
type State struct {
	Reading        *telemetry.Reading `json:"reading,omitempty"`
	Simulating     bool               `json:"simulating"`
	ActiveAlerts   int                `json:"active_alerts"`
	SessionState   string             `json:"session_state"`
	SessionVisible bool               `json:"session_visible"`
	Session        *voice.Session     `json:"session,omitempty"`
}

// InjectFault writes the trouble code into the current reading and
// raises an alert for it. If this produces a new alert while no session
// is open, a diagnostic session is started automatically; a session
// already in flight is left alone.
func (d *Dashboard) InjectFault(ctx context.Context, code string) (alert.Alert, error) {
	reading, err := d.source.InjectFault(code)
	if err != nil {
		return alert.Alert{}, err
	}

	a, created := d.alerts.Observe(code, nowFunc())
	metrics.ActiveAlerts.Set(float64(d.alerts.ActiveCount()))
	if !created {
		return a, nil
	}

	d.logger.Info("Fault injected", "vehicleID", reading.VehicleID, "code", code)

	if d.source.Simulating() && d.controller.State() == voice.StateIdle {
		if err := d.controller.Start(ctx, reading.VehicleID, code, voice.TriggerFault); err != nil {
			// The alert stands regardless; the voice channel is advisory.
			if !errors.Is(err, voice.ErrSessionBusy) {
				d.logger.Error(err, "Auto session start failed", "code", code)
			}
		}
	}
	return a, nil
}

// ClearFault removes the injected trouble code from the current reading
// and deactivates every active alert, since injected codes overwrite one
// another while their alerts accumulate. Re-injecting any code after a
// clear raises a fresh alert; deactivated alerts stay in the history.
func (d *Dashboard) ClearFault() (telemetry.Reading, error) {
	if d.alerts.ResolveAll() > 0 {
		metrics.ActiveAlerts.Set(float64(d.alerts.ActiveCount()))
	}
	return d.source.ClearFault()
}

// StartSession opens a voice session manually, without a fault context.
func (d *Dashboard) StartSession(ctx context.Context) error {
	reading, err := d.source.Current()
	if err != nil {
		return err
	}
	return d.controller.Start(ctx, reading.VehicleID, "", voice.TriggerManual)
}

// StopSession tears down any open voice session.
func (d *Dashboard) StopSession(ctx context.Context) error {
	return d.controller.Stop(ctx)
}

// Repair dispatches the repair for a trouble code: it announces the
// repair over any active voice session, appends the service record,
// resolves the matching alerts, and clears the injected fault. The
// voice announcement is best effort; a vendor failure never voids the
// repair itself.
func (d *Dashboard) Repair(ctx context.Context, code string) (maintenance.Record, error) {
	reading, err := d.source.Current()
	if err != nil {
		return maintenance.Record{}, err
	}

	if d.controller.State() == voice.StateActive {
		if err := d.controller.SpeakAndEnd(ctx, repairSpeech); err != nil {
			d.logger.Error(err, "Repair announcement failed", "code", code)
		}
	}

	rec := d.records.Append(reading.VehicleID, maintenance.ServiceFor(code), nowFunc())
	metrics.RepairsTotal.Inc()

	resolved := d.alerts.ResolveCode(code)
	metrics.ActiveAlerts.Set(float64(d.alerts.ActiveCount()))
	d.logger.Info("Repair dispatched", "vehicleID", reading.VehicleID, "code", code, "alertsResolved", resolved)

	if _, err := d.source.ClearFault(); err != nil {
		d.logger.Error(err, "Fault clear after repair failed", "code", code)
	}

	// The session must not outlive the repair even if the vendor never
	// acknowledges the hang-up.
	d.controller.ForceIdle("ended")

	return rec, nil
}

// State assembles the aggregate snapshot.
func (d *Dashboard) State() State {
	st := State{
		Simulating:     d.source.Simulating(),
		ActiveAlerts:   d.alerts.ActiveCount(),
		SessionState:   d.controller.State(),
		SessionVisible: d.controller.Visible(),
	}
	if reading, err := d.source.Current(); err == nil {
		st.Reading = &reading
	}
	if st.SessionState != voice.StateIdle {
		s := d.controller.Session()
		st.Session = &s
	}
	return st
}

// Alerts returns the alert history, most recent first.
func (d *Dashboard) Alerts() []alert.Alert { return d.alerts.Alerts() }

// MaintenanceRecords returns the service history, most recent first.
func (d *Dashboard) MaintenanceRecords() []maintenance.Record { return d.records.Records() }

// Run starts the voice event loop, the optional snapshot watcher, and
// the HTTP server, and blocks until ctx is cancelled or one of them
// fails.
func (d *Dashboard) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return d.controller.Run(ctx)
	})

	if d.watch {
		group.Go(func() error {
			return d.source.Watch(ctx)
		})
	}

	group.Go(func() error {
		return d.serveHTTP(ctx)
	})

	return group.Wait()
}
