package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sitetrack-service/internal/api/dto"
	"sitetrack-service/internal/services"
)

type AlertHandler struct {
	Alerts  *services.AlertService
	Tracker *services.Tracker
}

// List filters on the optional resolved=true|false query parameter.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	var resolved *bool
	if raw := r.URL.Query().Get("resolved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "resolved must be true or false")
			return
		}
		resolved = &v
	}

	out, err := h.Alerts.List(r.Context(), resolved)
	if err != nil {
		writeServiceError(w, r, "list alerts", err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *AlertHandler) Emergency(w http.ResponseWriter, r *http.Request) {
	var req dto.EmergencyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "emergency", err)
		return
	}

	a, err := h.Tracker.ReportEmergency(r.Context(), req.Report())
	if err != nil {
		writeServiceError(w, r, "emergency", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.EmergencyResponse{Success: true, AlertID: a.ID})
}

func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if err := h.Alerts.Resolve(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, "resolve alert", err)
		return
	}
	writeJSON(w, r, http.StatusOK, okResponse)
}
