// Package maintenance keeps the append-only service history for each
// vehicle. Records are only ever added; a repair that later turns out to
// be incomplete gets a new record, not an edit.
package maintenance

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uptime-oracle/uptime-oracle/pkg/log"
)

// Record status values.
const (
	StatusCompleted = "Completed"
	StatusScheduled = "Scheduled"
)

// Record is a single service-history entry.
type Record struct {
	ID        string    `json:"id"`
	VehicleID string    `json:"vehicle_id"`
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	Date      time.Time `json:"date"`
}

// serviceCatalog maps trouble codes to the shop service that clears them.
var serviceCatalog = map[string]string{
	"P0300": "Misfire Diagnosis & Coil Replacement",
}

// ServiceFor returns the service description for a trouble code, falling
// back to a generic diagnostic entry for codes without a catalog match.
func ServiceFor(code string) string {
	if svc, ok := serviceCatalog[code]; ok {
		return svc
	}
	return "Diagnostic Inspection (" + code + ")"
}

// Ledger is a concurrency-safe, most-recent-first record list.
type Ledger struct {
	logger log.Logger

	mu      sync.RWMutex
	records []Record
}

// NewLedger creates a Ledger seeded with the given records, newest first.
func NewLedger(logger log.Logger, seed ...Record) *Ledger {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	l := &Ledger{logger: logger.WithName("maintenance")}
	l.records = append(l.records, seed...)
	return l
}

// Append adds a completed-service record for the vehicle and returns it.
func (l *Ledger) Append(vehicleID, service string, at time.Time) Record {
	rec := Record{
		ID:        uuid.New().String(),
		VehicleID: vehicleID,
		Service:   service,
		Status:    StatusCompleted,
		Date:      at,
	}

	l.mu.Lock()
	l.records = append([]Record{rec}, l.records...)
	l.mu.Unlock()

	l.logger.Info("Service recorded", "vehicleID", vehicleID, "service", service)
	return rec
}

// Records returns a copy of the history, most recent first.
func (l *Ledger) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records in the history.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
