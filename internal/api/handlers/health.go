package handlers

import (
	"context"
	"net/http"
	"time"

	"sitetrack-service/internal/api/dto"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness together with store reachability and
// connection counts. A down store degrades the status but still answers 200.
type HealthHandler struct {
	Store Pinger
	// Counters; any may be nil.
	ActiveDrivers func() int
	Drivers       func() int
	Observers     func() int
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := dto.HealthResponse{
		Status:        "ok",
		Database:      "ok",
		ActiveDrivers: count(h.ActiveDrivers),
		Drivers:       count(h.Drivers),
		Observers:     count(h.Observers),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if h.Store == nil {
		res.Status, res.Database = "degraded", "unavailable"
	} else if err := h.Store.Ping(ctx); err != nil {
		res.Status, res.Database = "degraded", "unavailable"
	}

	writeJSON(w, r, http.StatusOK, res)
}

func count(f func() int) int {
	if f == nil {
		return 0
	}
	return f()
}
