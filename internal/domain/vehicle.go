package domain

import "time"

type VehicleStatus string

const (
	StatusEnRoute   VehicleStatus = "en_route"
	StatusDeviation VehicleStatus = "deviation"
	StatusStopped   VehicleStatus = "stopped"
	StatusEmergency VehicleStatus = "emergency"
)

// Live view of a driver currently connected to the service.
// Driver and route names are denormalised from the delivery for display.
type TrackedVehicle struct {
	DriverID     string        `json:"driver_id"`
	DriverName   string        `json:"driver_name"`
	DeliveryID   string        `json:"delivery_id"`
	RouteID      string        `json:"route_id"`
	RouteName    string        `json:"route_name"`
	Latitude     float64       `json:"latitude"`
	Longitude    float64       `json:"longitude"`
	Speed        float64       `json:"speed"`
	Heading      float64       `json:"heading"`
	Status       VehicleStatus `json:"status"`
	VehicleType  string        `json:"vehicle_type"`
	LicensePlate string        `json:"license_plate,omitempty"`
	LastUpdate   time.Time     `json:"last_update"`
	Alerts       []Alert       `json:"alerts"`
}

// Clone returns a copy that shares no slice memory with v.
func (v TrackedVehicle) Clone() TrackedVehicle {
	out := v
	out.Alerts = make([]Alert, len(v.Alerts))
	copy(out.Alerts, v.Alerts)
	return out
}
