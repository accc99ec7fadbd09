package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitetrack-service/internal/api/dto"
	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/services"
)

type LocationHandler struct {
	Tracker *services.Tracker
}

// Update ingests one report posted over HTTP. The vehicle shows up in the
// active list only while the driver also has an open connection.
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.LocationUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "location update", err)
		return
	}

	alerts, err := h.Tracker.ReportLocation(r.Context(), req.Report())
	if err != nil {
		writeServiceError(w, r, "location update", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.LocationUpdateResponse{Success: true, Alerts: alerts})
}

func (h *LocationHandler) Active(w http.ResponseWriter, r *http.Request) {
	vehicles := h.Tracker.ActiveVehicles()
	if vehicles == nil {
		vehicles = []domain.TrackedVehicle{}
	}
	writeJSON(w, r, http.StatusOK, vehicles)
}

func (h *LocationHandler) History(w http.ResponseWriter, r *http.Request) {
	points, err := h.Tracker.History(r.Context(), chi.URLParam(r, "deliveryID"))
	if err != nil {
		writeServiceError(w, r, "location history", err)
		return
	}
	if points == nil {
		points = []domain.LocationReport{}
	}
	writeJSON(w, r, http.StatusOK, points)
}
