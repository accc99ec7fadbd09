package dto

import "sitetrack-service/internal/domain"

// RouteRequest is the body of route create and update. Id, creation time and
// the active flag are owned by the server.
type RouteRequest struct {
	Name            string              `json:"name" validate:"required"`
	Description     string              `json:"description"`
	Waypoints       []domain.Waypoint   `json:"waypoints" validate:"required,min=1"`
	Destination     domain.Destination  `json:"destination"`
	VehicleTypes    []string            `json:"vehicle_types"`
	SpeedLimits     []domain.SpeedLimit `json:"speed_limits"`
	DangerZones     []domain.Zone       `json:"danger_zones"`
	RestrictedZones []domain.Zone       `json:"restricted_zones"`
	EstimatedTime   int                 `json:"estimated_time" validate:"gte=0"`
	Distance        float64             `json:"distance" validate:"gte=0"`
}

func (r RouteRequest) Route() domain.Route {
	return domain.Route{
		Name:            r.Name,
		Description:     r.Description,
		Waypoints:       r.Waypoints,
		Destination:     r.Destination,
		VehicleTypes:    r.VehicleTypes,
		SpeedLimits:     r.SpeedLimits,
		DangerZones:     r.DangerZones,
		RestrictedZones: r.RestrictedZones,
		EstimatedTime:   r.EstimatedTime,
		Distance:        r.Distance,
	}
}
