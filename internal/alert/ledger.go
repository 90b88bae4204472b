package alert

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uptime-oracle/uptime-oracle/pkg/log"
)

// Severity classifies an alert for display.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Alert is one entry in the alert log.
type Alert struct {
	ID       string    `json:"id"`
	Code     string    `json:"code"`
	Time     time.Time `json:"time"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Active   bool      `json:"active"`
}

// messageCatalog maps known trouble codes to their display text.
var messageCatalog = map[string]string{
	"P0300": "Random/Multiple Cylinder Misfire Detected",
}

// MessageFor returns the display message for a trouble code.
func MessageFor(code string) string {
	if msg, ok := messageCatalog[code]; ok {
		return msg
	}
	return fmt.Sprintf("Trouble Code %s Detected", code)
}

// Baseline returns the informational entries the alert log starts with.
func Baseline(now time.Time) []Alert {
	return []Alert{
		{
			ID:       uuid.NewString(),
			Code:     "SYS-OK",
			Time:     now.Add(-2 * time.Hour),
			Message:  "Brake Fluid Pressure Nominal",
			Severity: SeverityInfo,
		},
		{
			ID:       uuid.NewString(),
			Code:     "SYS-OK",
			Time:     now.Add(-4 * time.Hour),
			Message:  "Tire Pressure Check: 32 PSI (All)",
			Severity: SeverityInfo,
		},
	}
}

// Ledger is the ordered alert log, most recent first. Entries are never
// removed; resolving a fault only flips its alerts inactive.
type Ledger struct {
	logger log.Logger

	mu     sync.RWMutex
	alerts []Alert
}

// NewLedger creates a Ledger pre-seeded with the given entries.
func NewLedger(logger log.Logger, seed ...Alert) *Ledger {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Ledger{
		logger: logger.WithName("alerts"),
		alerts: append([]Alert(nil), seed...),
	}
}

// Observe records a fault report. A report for a code that already has an
// active alert is a no-op, making repeated reports of the same condition
// idempotent. Returns the alert for the code and whether it was newly
// created.
func (l *Ledger) Observe(code string, at time.Time) (Alert, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.alerts {
		if l.alerts[i].Code == code && l.alerts[i].Active {
			return l.alerts[i], false
		}
	}

	a := Alert{
		ID:       uuid.NewString(),
		Code:     code,
		Time:     at,
		Message:  MessageFor(code),
		Severity: SeverityCritical,
		Active:   true,
	}
	l.alerts = append([]Alert{a}, l.alerts...)

	l.logger.Warn("New fault alert", "code", code, "message", a.Message)
	return a, true
}

// ResolveCode deactivates every active alert for the code and returns how
// many were flipped. The entries stay in the log as history.
func (l *Ledger) ResolveCode(code string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	resolved := 0
	for i := range l.alerts {
		if l.alerts[i].Code == code && l.alerts[i].Active {
			l.alerts[i].Active = false
			resolved++
		}
	}
	if resolved > 0 {
		l.logger.Info("Fault resolved", "code", code, "alerts", resolved)
	}
	return resolved
}

// ResolveAll deactivates every active alert and returns how many were
// flipped. Used when the fault simulation ends as a whole.
func (l *Ledger) ResolveAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	resolved := 0
	for i := range l.alerts {
		if l.alerts[i].Active {
			l.alerts[i].Active = false
			resolved++
		}
	}
	if resolved > 0 {
		l.logger.Info("All faults resolved", "alerts", resolved)
	}
	return resolved
}

// ActiveCount returns the number of active alerts.
func (l *Ledger) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for i := range l.alerts {
		if l.alerts[i].Active {
			n++
		}
	}
	return n
}

// Alerts returns a copy of the log, most recent first.
func (l *Ledger) Alerts() []Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Alert(nil), l.alerts...)
}

// Len returns the total number of entries, active or not.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.alerts)
}
