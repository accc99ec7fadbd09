package services

import (
	"fmt"
	"math"

	"sitetrack-service/internal/catalog"
	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/geo"
)

type CameraService struct {
	catalog *catalog.Catalog
}

func NewCameraService(cat *catalog.Catalog) *CameraService {
	return &CameraService{catalog: cat}
}

type NearestCamera struct {
	Camera   domain.Camera `json:"camera"`
	Distance float64       `json:"distance"`
}

func (s *CameraService) List() []domain.Camera {
	if s.catalog == nil {
		return []domain.Camera{}
	}
	return s.catalog.ActiveCameras()
}

// Nearest returns the active camera closest to p, distance in meters.
func (s *CameraService) Nearest(p domain.Coordinates) (NearestCamera, error) {
	if !p.Valid() {
		return NearestCamera{}, fmt.Errorf("nearest camera: coordinates (%f, %f) out of bounds: %w", p.Lat, p.Lng, domain.ErrValidation)
	}

	var (
		best    NearestCamera
		found   bool
		minDist = math.Inf(1)
	)
	for _, cam := range s.List() {
		d := geo.DistanceMeters(p, cam.Location)
		// Tie-breaker keeps the result deterministic when distances are equal.
		if d < minDist || (d == minDist && cam.ID < best.Camera.ID) {
			minDist = d
			best = NearestCamera{Camera: cam, Distance: d}
			found = true
		}
	}

	if !found {
		return NearestCamera{}, fmt.Errorf("nearest camera: no active camera: %w", domain.ErrNotFound)
	}
	return best, nil
}
