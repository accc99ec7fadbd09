package domain

import (
	"fmt"
	"strings"
	"time"
)

// Represents a single point a driver is expected to pass on a route.
// Waypoints are ordered by Order, which must increase along the route.
type Waypoint struct {
	Lat   float64 `json:"lat" yaml:"lat"`
	Lng   float64 `json:"lng" yaml:"lng"`
	Name  string  `json:"name" yaml:"name"`
	Order int     `json:"order" yaml:"order"`
}

func (w Waypoint) Coordinates() Coordinates { return Coordinates{Lat: w.Lat, Lng: w.Lng} }

// Final stop of a route.
type Destination struct {
	Lat  float64 `json:"lat" yaml:"lat"`
	Lng  float64 `json:"lng" yaml:"lng"`
	Name string  `json:"name" yaml:"name"`
	Type string  `json:"type" yaml:"type"`
}

// Speed limit (km/h) applying between two waypoint indexes.
type SpeedLimit struct {
	Start int     `json:"start" yaml:"start"`
	End   int     `json:"end" yaml:"end"`
	Limit float64 `json:"limit" yaml:"limit"`
}

// Circular danger or restricted area around a point. Radius is in meters.
type Zone struct {
	Lat         float64 `json:"lat" yaml:"lat"`
	Lng         float64 `json:"lng" yaml:"lng"`
	Radius      float64 `json:"radius" yaml:"radius"`
	Description string  `json:"description" yaml:"description"`
}

// Represents a predefined path on the site together with its speed and zone policy.
// A Route is immutable once stored: updates replace the whole definition.
type Route struct {
	ID              string       `json:"id" yaml:"id"`
	Name            string       `json:"name" yaml:"name"`
	Description     string       `json:"description,omitempty" yaml:"description"`
	Waypoints       []Waypoint   `json:"waypoints" yaml:"waypoints"`
	Destination     Destination  `json:"destination" yaml:"destination"`
	VehicleTypes    []string     `json:"vehicle_types" yaml:"vehicle_types"`
	SpeedLimits     []SpeedLimit `json:"speed_limits" yaml:"speed_limits"`
	DangerZones     []Zone       `json:"danger_zones" yaml:"danger_zones"`
	RestrictedZones []Zone       `json:"restricted_zones" yaml:"restricted_zones"`
	EstimatedTime   int          `json:"estimated_time" yaml:"estimated_time"`
	Distance        float64      `json:"distance" yaml:"distance"`
	CreatedAt       time.Time    `json:"created_at" yaml:"created_at"`
	IsActive        bool         `json:"is_active" yaml:"is_active"`
}

// Validate checks the route invariants: a name, at least one waypoint,
// and strictly increasing waypoint order.
func (r *Route) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("validate route: name must not be empty: %w", ErrValidation)
	}
	if len(r.Waypoints) == 0 {
		return fmt.Errorf("validate route %q: at least one waypoint is required: %w", r.ID, ErrValidation)
	}

	for i, w := range r.Waypoints {
		if !w.Coordinates().Valid() {
			return fmt.Errorf("validate route %q: waypoint %d out of bounds: %w", r.ID, i, ErrValidation)
		}
		if i > 0 && w.Order <= r.Waypoints[i-1].Order {
			return fmt.Errorf(
				"validate route %q: waypoint order must increase (index %d: %d after %d): %w",
				r.ID, i, w.Order, r.Waypoints[i-1].Order, ErrValidation,
			)
		}
	}

	return nil
}
