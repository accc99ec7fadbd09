package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/catalog"
	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/ports"
)

// RouteResolver looks a route up in the cache, then the store, then the
// static catalog. Cache errors are logged and bypassed.
type RouteResolver struct {
	store   ports.RouteRepository
	cache   ports.RouteCache
	catalog *catalog.Catalog
	log     logrus.FieldLogger
}

// NewRouteResolver accepts a nil cache and a nil catalog.
func NewRouteResolver(store ports.RouteRepository, cache ports.RouteCache, cat *catalog.Catalog, log logrus.FieldLogger) *RouteResolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RouteResolver{store: store, cache: cache, catalog: cat, log: log.WithField("component", "route_resolver")}
}

func (r *RouteResolver) Resolve(ctx context.Context, id string) (*domain.Route, error) {
	if id == "" {
		return nil, fmt.Errorf("resolve route: empty id: %w", domain.ErrNotFound)
	}

	if r.cache != nil {
		route, ok, err := r.cache.GetRoute(ctx, id)
		switch {
		case err != nil:
			r.log.WithError(err).WithField("route_id", id).Warn("route cache read failed")
		case ok:
			return route, nil
		}
	}

	route, storeErr := r.store.FindRoute(ctx, id)
	if storeErr == nil {
		if r.cache != nil {
			if err := r.cache.PutRoute(ctx, route); err != nil {
				r.log.WithError(err).WithField("route_id", id).Warn("route cache write failed")
			}
		}
		return route, nil
	}
	if !errors.Is(storeErr, domain.ErrNotFound) {
		r.log.WithError(storeErr).WithField("route_id", id).Warn("route store lookup failed, trying catalog")
	}

	if r.catalog != nil {
		if route, ok := r.catalog.Route(id); ok {
			return route, nil
		}
	}

	if errors.Is(storeErr, domain.ErrNotFound) {
		return nil, fmt.Errorf("resolve route %s: %w", id, domain.ErrNotFound)
	}
	return nil, fmt.Errorf("resolve route %s: %w", id, storeErr)
}

// Forget drops id from the cache after a route change.
func (r *RouteResolver) Forget(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.InvalidateRoute(ctx, id); err != nil {
		r.log.WithError(err).WithField("route_id", id).Warn("route cache invalidate failed")
	}
}
