package ports

import (
	"context"
	"sitetrack-service/internal/domain"
)

// Optional read-through cache in front of the route store.
type RouteCache interface {
	// Return the cached route; ok is false on a miss.
	GetRoute(ctx context.Context, id string) (r *domain.Route, ok bool, err error)
	PutRoute(ctx context.Context, r *domain.Route) error
	InvalidateRoute(ctx context.Context, id string) error
}
