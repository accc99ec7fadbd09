package dto

import (
	"time"

	"sitetrack-service/internal/domain"
)

type LocationUpdateRequest struct {
	DriverID   string     `json:"driver_id" validate:"required"`
	DeliveryID string     `json:"delivery_id"`
	Latitude   float64    `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64    `json:"longitude" validate:"gte=-180,lte=180"`
	Speed      float64    `json:"speed" validate:"gte=0"`
	Heading    float64    `json:"heading"`
	Timestamp  *time.Time `json:"timestamp"`
}

func (r LocationUpdateRequest) Report() domain.LocationReport {
	rep := domain.LocationReport{
		DriverID:   r.DriverID,
		DeliveryID: r.DeliveryID,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Speed:      r.Speed,
		Heading:    r.Heading,
	}
	if r.Timestamp != nil {
		rep.Timestamp = r.Timestamp.UTC()
	}
	return rep
}

type LocationUpdateResponse struct {
	Success bool           `json:"success"`
	Alerts  []domain.Alert `json:"alerts"`
}
