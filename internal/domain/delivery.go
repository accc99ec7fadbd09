package domain

import (
	"fmt"
	"time"
)

type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliveryInProgress DeliveryStatus = "in_progress"
	DeliveryCompleted  DeliveryStatus = "completed"
	DeliveryCancelled  DeliveryStatus = "cancelled"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryInProgress, DeliveryCompleted, DeliveryCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a delivery may move from s to next.
// pending -> in_progress -> completed; pending|in_progress -> cancelled.
func (s DeliveryStatus) CanTransition(next DeliveryStatus) bool {
	switch s {
	case DeliveryPending:
		return next == DeliveryInProgress || next == DeliveryCancelled
	case DeliveryInProgress:
		return next == DeliveryCompleted || next == DeliveryCancelled
	}
	return false
}

// Represents a scheduled assignment of a driver to a route.
// Status and timestamps change only through explicit transitions; location
// reports never move a delivery through its lifecycle.
type Delivery struct {
	ID            string         `json:"id"`
	DriverID      string         `json:"driver_id,omitempty"`
	DriverName    string         `json:"driver_name,omitempty"`
	RouteID       string         `json:"route_id"`
	RouteName     string         `json:"route_name,omitempty"`
	Status        DeliveryStatus `json:"status"`
	ScheduledTime *time.Time     `json:"scheduled_time,omitempty"`
	StartTime     *time.Time     `json:"start_time,omitempty"`
	EndTime       *time.Time     `json:"end_time,omitempty"`
	Company       string         `json:"company,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	VehicleType   string         `json:"vehicle_type,omitempty"`
	LicensePlate  string         `json:"license_plate,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Transition moves the delivery to next and stamps start/end times.
func (d *Delivery) Transition(next DeliveryStatus, now time.Time) error {
	if !next.Valid() {
		return fmt.Errorf("delivery %s: unknown status %q: %w", d.ID, next, ErrValidation)
	}
	if !d.Status.CanTransition(next) {
		return fmt.Errorf("delivery %s: cannot move from %s to %s: %w", d.ID, d.Status, next, ErrValidation)
	}

	d.Status = next
	switch next {
	case DeliveryInProgress:
		d.StartTime = &now
	case DeliveryCompleted:
		d.EndTime = &now
	}
	return nil
}

// Assign copies the driver's display and vehicle fields onto the delivery.
func (d *Delivery) Assign(u *User) {
	d.DriverID = u.ID
	d.DriverName = u.Name
	d.VehicleType = u.VehicleType
	d.LicensePlate = u.LicensePlate
}
