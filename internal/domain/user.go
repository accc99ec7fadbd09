package domain

import "time"

type Role string

const (
	RoleDriver     Role = "driver"
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
)

// A person known to the service. Credentials are not stored here.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Company      string    `json:"company,omitempty"`
	VehicleType  string    `json:"vehicle_type,omitempty"`
	LicensePlate string    `json:"license_plate,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	IsActive     bool      `json:"is_active"`
}
