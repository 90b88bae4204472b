package telemetry

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/uptime-oracle/uptime-oracle/pkg/log"
)

var (
	// ErrVehicleNotFound reports a vehicle id absent from the snapshot.
	ErrVehicleNotFound = errors.New("telemetry: vehicle not found in snapshot")

	// ErrNotLoaded reports access to the source before a successful load.
	ErrNotLoaded = errors.New("telemetry: snapshot not loaded")
)

// Source owns the single current reading for one vehicle. The reading is
// replaced wholesale on every mutation, never patched in place, so readers
// always see a consistent row.
type Source struct {
	path      string
	vehicleID string
	logger    log.Logger

	mu         sync.RWMutex
	current    *Reading
	simulating bool
}

// NewSource creates a Source for the given snapshot file and vehicle id.
// Nothing is read until Load is called.
func NewSource(path, vehicleID string, logger log.Logger) *Source {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Source{
		path:      path,
		vehicleID: vehicleID,
		logger:    logger.WithName("telemetry"),
	}
}

// Load parses the snapshot and selects the configured vehicle's row.
// On any failure the source keeps its previous state: a source that never
// loaded stays unloaded, and a reload failure keeps the old reading.
func (s *Source) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotLoad, err)
	}
	defer f.Close()

	readings, err := ParseSnapshot(f)
	if err != nil {
		return err
	}

	for i := range readings {
		if readings[i].VehicleID == s.vehicleID {
			s.mu.Lock()
			s.current = &readings[i]
			s.simulating = false
			s.mu.Unlock()
			s.logger.Info("Snapshot loaded", "path", s.path, "vehicleID", s.vehicleID, "rows", len(readings))
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrVehicleNotFound, s.vehicleID)
}

// Loaded reports whether a reading is available.
func (s *Source) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// VehicleID returns the vehicle this source monitors.
func (s *Source) VehicleID() string {
	return s.vehicleID
}

// Current returns a copy of the current reading.
func (s *Source) Current() (Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Reading{}, ErrNotLoaded
	}
	return s.current.Clone(), nil
}

// Simulating reports whether a fault injection is in effect.
func (s *Source) Simulating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.simulating
}

// InjectFault overwrites the current reading's trouble code and marks the
// simulation active. Every other field is left untouched. Returns the
// updated reading.
func (s *Source) InjectFault(code string) (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Reading{}, ErrNotLoaded
	}

	next := *s.current
	next.TroubleCodes = code
	s.current = &next
	s.simulating = true

	s.logger.Info("Fault injected", "vehicleID", s.vehicleID, "code", code)
	return next.Clone(), nil
}

// ClearFault resets the trouble code and the simulation flag.
func (s *Source) ClearFault() (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Reading{}, ErrNotLoaded
	}

	next := *s.current
	next.TroubleCodes = ""
	s.current = &next
	s.simulating = false

	s.logger.Info("Fault cleared", "vehicleID", s.vehicleID)
	return next.Clone(), nil
}
