package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/catalog"
	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/ports"
)

type RouteService struct {
	store    ports.RouteRepository
	resolver *RouteResolver
	catalog  *catalog.Catalog
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewRouteService(store ports.RouteRepository, resolver *RouteResolver, cat *catalog.Catalog, log logrus.FieldLogger) *RouteService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RouteService{
		store:    store,
		resolver: resolver,
		catalog:  cat,
		log:      log.WithField("component", "routes"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns active routes. An empty store is filled from the catalog;
// an unreachable store is answered from the catalog alone.
func (s *RouteService) List(ctx context.Context) ([]*domain.Route, error) {
	routes, err := s.store.ListRoutes(ctx)
	if errors.Is(err, domain.ErrStoreUnavailable) && s.catalog != nil {
		s.log.WithError(err).Warn("listing catalog routes, store unavailable")
		return s.catalogRoutes(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	if len(routes) > 0 || s.catalog == nil {
		return routes, nil
	}

	out := s.catalogRoutes()
	now := s.now()
	for _, r := range out {
		r.CreatedAt = now
		if err := s.store.InsertRoute(ctx, r); err != nil {
			s.log.WithError(err).WithField("route_id", r.ID).Warn("catalog route not stored")
		}
	}
	return out, nil
}

func (s *RouteService) catalogRoutes() []*domain.Route {
	out := make([]*domain.Route, 0, len(s.catalog.Routes))
	for _, cr := range s.catalog.Routes {
		if !cr.IsActive {
			continue
		}
		if r, ok := s.catalog.Route(cr.ID); ok {
			out = append(out, r)
		}
	}
	return out
}

func (s *RouteService) Get(ctx context.Context, id string) (*domain.Route, error) {
	r, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	return r, nil
}

// Create stores a new active route under a fresh id.
func (s *RouteService) Create(ctx context.Context, r domain.Route) (*domain.Route, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = s.now()
	r.IsActive = true
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}

	if err := s.store.InsertRoute(ctx, &r); err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	return &r, nil
}

// Update replaces the definition of route id. Id and creation time are kept.
func (s *RouteService) Update(ctx context.Context, id string, r domain.Route) (*domain.Route, error) {
	cur, err := s.store.FindRoute(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update route: %w", err)
	}

	r.ID = cur.ID
	r.CreatedAt = cur.CreatedAt
	r.IsActive = cur.IsActive
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("update route: %w", err)
	}

	if err := s.store.UpdateRoute(ctx, &r); err != nil {
		return nil, fmt.Errorf("update route: %w", err)
	}
	s.resolver.Forget(ctx, id)
	return &r, nil
}

// Delete deactivates the route. It stays resolvable for existing deliveries.
func (s *RouteService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeactivateRoute(ctx, id); err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	s.resolver.Forget(ctx, id)
	return nil
}
