package dto

import (
	"encoding/json"
	"time"

	"sitetrack-service/internal/domain"
)

type CreateDeliveryRequest struct {
	RouteID       string     `json:"route_id" validate:"required"`
	DriverID      string     `json:"driver_id"`
	ScheduledTime *time.Time `json:"scheduled_time"`
	Company       string     `json:"company"`
	Notes         string     `json:"notes"`
	VehicleType   string     `json:"vehicle_type"`
	LicensePlate  string     `json:"license_plate"`
}

// QR payload as scanned: either an object or the same object as a JSON string.
type QRScanRequest struct {
	QRData json.RawMessage `json:"qr_data" validate:"required"`
}

type QRScanResponse struct {
	Success  bool             `json:"success"`
	Delivery *domain.Delivery `json:"delivery"`
	Route    *domain.Route    `json:"route"`
}

type QRGenerateResponse struct {
	QRData string `json:"qr_data"`
}
