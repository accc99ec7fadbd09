package domain

import "time"

type AlertKind string

const (
	AlertDeviation     AlertKind = "deviation"
	AlertSpeed         AlertKind = "speed"
	AlertEmergency     AlertKind = "emergency"
	AlertStopped       AlertKind = "stopped"
	AlertZoneViolation AlertKind = "zone_violation"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Represents an anomaly raised for a driver. Alerts are never deleted;
// the only mutation is resolution.
type Alert struct {
	ID         string     `json:"id"`
	DriverID   string     `json:"driver_id"`
	DriverName string     `json:"driver_name"`
	DeliveryID string     `json:"delivery_id"`
	Kind       AlertKind  `json:"type"`
	Message    string     `json:"message"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Severity   Severity   `json:"severity"`
	IsResolved bool       `json:"is_resolved"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
