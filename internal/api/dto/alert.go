package dto

import "sitetrack-service/internal/domain"

type EmergencyRequest struct {
	DriverID   string  `json:"driver_id" validate:"required"`
	DriverName string  `json:"driver_name"`
	DeliveryID string  `json:"delivery_id"`
	Message    string  `json:"message"`
	Latitude   float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

func (r EmergencyRequest) Report() domain.EmergencyReport {
	return domain.EmergencyReport{
		DriverID:   r.DriverID,
		DriverName: r.DriverName,
		DeliveryID: r.DeliveryID,
		Message:    r.Message,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
	}
}

type EmergencyResponse struct {
	Success bool   `json:"success"`
	AlertID string `json:"alert_id"`
}
