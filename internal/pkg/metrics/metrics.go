package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActiveAlerts tracks the number of alerts currently flagged active.
	ActiveAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "oracle_active_alerts",
			Help: "Number of currently active fault alerts.",
		},
	)

	// SessionState exposes the voice session state as a one-hot gauge.
	// Exactly one of the label values is 1 at any time.
	SessionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oracle_voice_session_state",
			Help: "Voice session state (1 for the current state, 0 otherwise).",
		},
		[]string{"state"}, // idle / connecting / active
	)

	// SessionsStartedTotal counts session start requests by trigger.
	SessionsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_voice_sessions_started_total",
			Help: "Total number of voice session starts.",
		},
		[]string{"trigger"}, // manual / fault
	)

	// SessionsEndedTotal counts session terminations by reason.
	SessionsEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oracle_voice_sessions_ended_total",
			Help: "Total number of voice session terminations.",
		},
		[]string{"reason"}, // ended / stopped / error / timeout
	)

	// RepairsTotal counts completed repair actions.
	RepairsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "oracle_repairs_total",
			Help: "Total number of completed repair actions.",
		},
	)

	// TTSProxyLatency observes round-trip time to the speech vendor.
	TTSProxyLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oracle_tts_proxy_latency_seconds",
			Help:    "Latency of proxied text-to-speech requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"}, // ok / vendor_error / network_error
	)
)

// Registry is the project-wide metrics registry served on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ActiveAlerts,
		SessionState,
		SessionsStartedTotal,
		SessionsEndedTotal,
		RepairsTotal,
		TTSProxyLatency,
	)
}

// Handler returns the HTTP handler exposing Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// SetSessionState flips the one-hot session state gauge to the given state.
func SetSessionState(current string) {
	for _, s := range []string{"idle", "connecting", "active"} {
		v := 0.0
		if s == current {
			v = 1.0
		}
		SessionState.WithLabelValues(s).Set(v)
	}
}
