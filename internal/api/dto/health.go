package dto

type HealthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	ActiveDrivers int    `json:"active_drivers"`
	Drivers       int    `json:"connected_drivers"`
	Observers     int    `json:"connected_observers"`
}
