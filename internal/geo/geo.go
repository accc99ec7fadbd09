// Package geo holds the great-circle helpers used to check driver positions
// against route geometry.
package geo

import (
	"math"

	"sitetrack-service/internal/domain"
)

const (
	// Mean Earth radius used by the haversine formula.
	EarthRadiusMeters = 6371000.0

	// Default distance a driver may stray from every waypoint before deviating.
	DefaultTolerance = 100.0
)

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b domain.Coordinates) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := lat2 - lat1
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// IsDeviating reports whether p is at least tolerance meters away from every
// waypoint. An empty waypoint list is vacuously deviating; callers that can
// hold routes without waypoints must guard.
func IsDeviating(p domain.Coordinates, waypoints []domain.Waypoint, tolerance float64) bool {
	for _, w := range waypoints {
		if DistanceMeters(p, w.Coordinates()) < tolerance {
			return false
		}
	}
	return true
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
