package domain

import (
	"fmt"
	"strings"
	"time"
)

// A single GPS report from a driver. Speed is in km/h, heading in degrees.
type LocationReport struct {
	DriverID   string    `json:"driver_id"`
	DeliveryID string    `json:"delivery_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Speed      float64   `json:"speed"`
	Heading    float64   `json:"heading"`
	Timestamp  time.Time `json:"timestamp"`
}

func (r LocationReport) Position() Coordinates {
	return Coordinates{Lat: r.Latitude, Lng: r.Longitude}
}

// Validate checks the fields the pipeline depends on.
func (r LocationReport) Validate() error {
	if strings.TrimSpace(r.DriverID) == "" {
		return fmt.Errorf("location report: driver_id is required: %w", ErrValidation)
	}
	if !r.Position().Valid() {
		return fmt.Errorf("location report: coordinates (%f, %f) out of bounds: %w", r.Latitude, r.Longitude, ErrValidation)
	}
	if r.Speed < 0 {
		return fmt.Errorf("location report: negative speed %f: %w", r.Speed, ErrValidation)
	}
	return nil
}

// Out-of-band distress signal sent by a driver.
type EmergencyReport struct {
	DriverID   string
	DriverName string
	DeliveryID string
	Message    string
	Latitude   float64
	Longitude  float64
	Timestamp  time.Time
}
