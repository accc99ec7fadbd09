package handlers

import (
	"net/http"
	"strconv"

	"sitetrack-service/internal/catalog"
	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/services"
)

// SiteHandler serves the read-only site data: cameras, site layout and
// dashboard counters.
type SiteHandler struct {
	Cameras *services.CameraService
	Stats   *services.StatsService
	Site    catalog.Site
}

func (h *SiteHandler) ListCameras(w http.ResponseWriter, r *http.Request) {
	cams := h.Cameras.List()
	if cams == nil {
		cams = []domain.Camera{}
	}
	writeJSON(w, r, http.StatusOK, cams)
}

func (h *SiteHandler) NearestCamera(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "lng must be a number")
		return
	}

	got, err := h.Cameras.Nearest(domain.Coordinates{Lat: lat, Lng: lng})
	if err != nil {
		writeServiceError(w, r, "nearest camera", err)
		return
	}
	writeJSON(w, r, http.StatusOK, got)
}

func (h *SiteHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, h.Site)
}

func (h *SiteHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	st, err := h.Stats.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, "dashboard stats", err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}
