// Package events defines the closed set of messages pushed to connected
// drivers and observers, and the messages they may send back.
package events

import (
	"encoding/json"

	"sitetrack-service/internal/domain"
)

type Kind string

const (
	KindActiveDrivers      Kind = "active_drivers"
	KindLocationUpdate     Kind = "location_update"
	KindDriverDisconnected Kind = "driver_disconnected"
	KindEmergency          Kind = "emergency"
	KindAdminMessage       Kind = "admin_message"
)

// Event is implemented only by the types in this package, so a type switch
// over them is exhaustive.
type Event interface {
	Kind() Kind
	sealed()
}

// Full registry snapshot sent to an observer when it connects.
type ActiveDrivers struct {
	Vehicles []domain.TrackedVehicle
}

// A driver's state after one processed report.
type LocationUpdate struct {
	Vehicle domain.TrackedVehicle
}

type DriverDisconnected struct {
	DriverID string
}

type Emergency struct {
	Alert domain.Alert
}

// Free-text message relayed from an observer to a driver.
type AdminMessage struct {
	Message string
}

func (ActiveDrivers) Kind() Kind      { return KindActiveDrivers }
func (LocationUpdate) Kind() Kind     { return KindLocationUpdate }
func (DriverDisconnected) Kind() Kind { return KindDriverDisconnected }
func (Emergency) Kind() Kind          { return KindEmergency }
func (AdminMessage) Kind() Kind       { return KindAdminMessage }

func (ActiveDrivers) sealed()      {}
func (LocationUpdate) sealed()     {}
func (DriverDisconnected) sealed() {}
func (Emergency) sealed()          {}
func (AdminMessage) sealed()       {}

type dataEnvelope struct {
	Type Kind `json:"type"`
	Data any  `json:"data"`
}

func (e ActiveDrivers) MarshalJSON() ([]byte, error) {
	vehicles := e.Vehicles
	if vehicles == nil {
		vehicles = []domain.TrackedVehicle{}
	}
	return json.Marshal(dataEnvelope{Type: e.Kind(), Data: vehicles})
}

func (e LocationUpdate) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataEnvelope{Type: e.Kind(), Data: e.Vehicle})
}

func (e Emergency) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataEnvelope{Type: e.Kind(), Data: e.Alert})
}

func (e DriverDisconnected) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     Kind   `json:"type"`
		DriverID string `json:"driver_id"`
	}{e.Kind(), e.DriverID})
}

func (e AdminMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    Kind   `json:"type"`
		Message string `json:"message"`
	}{e.Kind(), e.Message})
}

// Encode renders ev in its wire form.
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}
