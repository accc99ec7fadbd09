package ports

import (
	"context"
	"sitetrack-service/internal/domain"
	"time"
)

// Port: durable user records. Only the fields needed to assign drivers are kept.
type UserRepository interface {
	InsertUser(ctx context.Context, u *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// Port: durable route definitions. Find returns domain.ErrNotFound for unknown ids.
type RouteRepository interface {
	FindRoute(ctx context.Context, id string) (*domain.Route, error)
	// Return active routes only.
	ListRoutes(ctx context.Context) ([]*domain.Route, error)
	InsertRoute(ctx context.Context, r *domain.Route) error
	UpdateRoute(ctx context.Context, r *domain.Route) error
	// Soft delete: the route stays resolvable for existing deliveries.
	DeactivateRoute(ctx context.Context, id string) error
}

// Filter for delivery listing and counting. Zero fields do not filter.
type DeliveryFilter struct {
	Status       domain.DeliveryStatus
	CreatedSince time.Time
	EndedSince   time.Time
}

// Fields of a delivery that may change after creation.
type DeliveryUpdate struct {
	Status       *domain.DeliveryStatus
	StartTime    *time.Time
	EndTime      *time.Time
	DriverID     *string
	DriverName   *string
	VehicleType  *string
	LicensePlate *string
}

type DeliveryRepository interface {
	FindDelivery(ctx context.Context, id string) (*domain.Delivery, error)
	// Return the newest deliveries first, at most limit.
	ListDeliveries(ctx context.Context, f DeliveryFilter, limit int) ([]*domain.Delivery, error)
	InsertDelivery(ctx context.Context, d *domain.Delivery) error
	UpdateDeliveryFields(ctx context.Context, id string, u DeliveryUpdate) error
	CountDeliveries(ctx context.Context, f DeliveryFilter) (int, error)
}

type LocationHistoryRepository interface {
	InsertLocationHistory(ctx context.Context, r domain.LocationReport) error
	// Return reports for a delivery in timestamp order, at most limit.
	ListLocationHistory(ctx context.Context, deliveryID string, limit int) ([]domain.LocationReport, error)
}

// Filter for alert listing and counting. Nil/zero fields do not filter.
type AlertFilter struct {
	Resolved *bool
	Severity domain.Severity
}

type AlertRepository interface {
	InsertAlert(ctx context.Context, a *domain.Alert) error
	// Return the newest alerts first, at most limit.
	ListAlerts(ctx context.Context, f AlertFilter, limit int) ([]*domain.Alert, error)
	// Mark an alert resolved at the given time. Unknown ids yield domain.ErrNotFound.
	ResolveAlert(ctx context.Context, id string, at time.Time) error
	CountAlerts(ctx context.Context, f AlertFilter) (int, error)
}

// The whole persistence collaborator as one value, as wired by the composition root.
type Store interface {
	UserRepository
	RouteRepository
	DeliveryRepository
	LocationHistoryRepository
	AlertRepository
	Ping(ctx context.Context) error
}
