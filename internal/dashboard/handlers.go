package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/uptime-oracle/uptime-oracle/internal/telemetry"
	"github.com/uptime-oracle/uptime-oracle/internal/voice"
)

type faultRequest struct {
	Code string `json:"code"`
}

type repairRequest struct {
	Code string `json:"code"`
}

func (d *Dashboard) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.State())
}

func (d *Dashboard) handleAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.Alerts())
}

func (d *Dashboard) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.MaintenanceRecords())
}

func (d *Dashboard) handleInjectFault(w http.ResponseWriter, r *http.Request) {
	var req faultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSONError(w, http.StatusBadRequest, "code is required")
		return
	}

	a, err := d.InjectFault(r.Context(), req.Code)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (d *Dashboard) handleClearFault(w http.ResponseWriter, r *http.Request) {
	reading, err := d.ClearFault()
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (d *Dashboard) handleStartSession(w http.ResponseWriter, r *http.Request) {
	if err := d.StartSession(r.Context()); err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"state": d.controller.State()})
}

func (d *Dashboard) handleStopSession(w http.ResponseWriter, r *http.Request) {
	if err := d.StopSession(r.Context()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": d.controller.State()})
}

func (d *Dashboard) handleRepair(w http.ResponseWriter, r *http.Request) {
	var req repairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSONError(w, http.StatusBadRequest, "code is required")
		return
	}

	rec, err := d.Repair(r.Context(), req.Code)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (d *Dashboard) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (d *Dashboard) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !d.source.Loaded() {
		writeJSONError(w, http.StatusServiceUnavailable, "snapshot not loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, voice.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, telemetry.ErrNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, telemetry.ErrVehicleNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
