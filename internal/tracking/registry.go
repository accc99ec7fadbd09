// Package tracking keeps the volatile view of vehicles that are live right now.
package tracking

import (
	"sync"

	"sitetrack-service/internal/domain"
)

// Registry maps driver id to the driver's latest tracked state.
// It is safe for concurrent use; every mutation is a single exclusive section.
type Registry struct {
	mu       sync.RWMutex
	vehicles map[string]domain.TrackedVehicle
}

func NewRegistry() *Registry {
	return &Registry{vehicles: make(map[string]domain.TrackedVehicle)}
}

// Upsert stores v as the current state of driverID, replacing any previous entry.
func (r *Registry) Upsert(driverID string, v domain.TrackedVehicle) {
	v = v.Clone()
	v.DriverID = driverID

	r.mu.Lock()
	r.vehicles[driverID] = v
	r.mu.Unlock()
}

// Remove deletes driverID and reports whether an entry existed.
func (r *Registry) Remove(driverID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.vehicles[driverID]; !ok {
		return false
	}
	delete(r.vehicles, driverID)
	return true
}

func (r *Registry) Get(driverID string) (domain.TrackedVehicle, bool) {
	r.mu.RLock()
	v, ok := r.vehicles[driverID]
	r.mu.RUnlock()

	if !ok {
		return domain.TrackedVehicle{}, false
	}
	return v.Clone(), true
}

// Snapshot returns a point-in-time copy of all entries in no particular order.
func (r *Registry) Snapshot() []domain.TrackedVehicle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.TrackedVehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		out = append(out, v.Clone())
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.vehicles)
}
