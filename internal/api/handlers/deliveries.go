package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitetrack-service/internal/api/dto"
	"sitetrack-service/internal/services"
)

// DeliveryHandler exposes delivery CRUD, status transitions and QR codes.
type DeliveryHandler struct {
	Deliveries *services.DeliveryService
}

func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.Deliveries.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, "list deliveries", err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.Deliveries.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "get delivery", err)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDeliveryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "create delivery", err)
		return
	}

	d, err := h.Deliveries.Create(r.Context(), services.NewDelivery{
		RouteID:       req.RouteID,
		DriverID:      req.DriverID,
		ScheduledTime: req.ScheduledTime,
		Company:       req.Company,
		Notes:         req.Notes,
		VehicleType:   req.VehicleType,
		LicensePlate:  req.LicensePlate,
	})
	if err != nil {
		writeServiceError(w, r, "create delivery", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, d)
}

// UpdateStatus takes the target status from the status query parameter.
func (h *DeliveryHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		writeError(w, r, http.StatusBadRequest, "status is required")
		return
	}

	if _, err := h.Deliveries.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status); err != nil {
		writeServiceError(w, r, "update delivery status", err)
		return
	}
	writeJSON(w, r, http.StatusOK, okResponse)
}

func (h *DeliveryHandler) Assign(w http.ResponseWriter, r *http.Request) {
	driverID := r.URL.Query().Get("driver_id")
	if driverID == "" {
		writeError(w, r, http.StatusBadRequest, "driver_id is required")
		return
	}

	if _, err := h.Deliveries.Assign(r.Context(), chi.URLParam(r, "id"), driverID); err != nil {
		writeServiceError(w, r, "assign delivery", err)
		return
	}
	writeJSON(w, r, http.StatusOK, okResponse)
}

func (h *DeliveryHandler) ScanQR(w http.ResponseWriter, r *http.Request) {
	var req dto.QRScanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "scan qr", err)
		return
	}

	scan, err := h.Deliveries.ScanQR(r.Context(), req.QRData)
	if err != nil {
		writeServiceError(w, r, "scan qr", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.QRScanResponse{Success: true, Delivery: scan.Delivery, Route: scan.Route})
}

// GenerateQR returns the serialized payload a client renders as a QR image.
func (h *DeliveryHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	p, err := h.Deliveries.QRPayload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "generate qr", err)
		return
	}

	b, err := json.Marshal(p)
	if err != nil {
		writeServiceError(w, r, "generate qr", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.QRGenerateResponse{QRData: string(b)})
}
