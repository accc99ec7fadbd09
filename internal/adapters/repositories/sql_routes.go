package repositories

import (
	"context"
	"fmt"

	"sitetrack-service/internal/domain"
)

const routeColumns = `
	id, name, description, waypoints, destination, vehicle_types, speed_limits,
	danger_zones, restricted_zones, estimated_time, distance, created_at, is_active`

const insertRouteQuery = `
	INSERT INTO routes (` + routeColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// routeArgs flattens a route into insertRouteQuery arguments.
// Nested slices and the destination are stored as JSON text.
func routeArgs(r *domain.Route) ([]any, error) {
	cols := make([]string, 0, 6)
	for _, v := range []any{
		nonNil(r.Waypoints), r.Destination, nonNil(r.VehicleTypes),
		nonNil(r.SpeedLimits), nonNil(r.DangerZones), nonNil(r.RestrictedZones),
	} {
		s, err := toJSON(v)
		if err != nil {
			return nil, fmt.Errorf("encode route column: %w", err)
		}
		cols = append(cols, s)
	}

	return []any{
		r.ID, r.Name, r.Description,
		cols[0], cols[1], cols[2], cols[3], cols[4], cols[5],
		r.EstimatedTime, r.Distance, formatTime(r.CreatedAt), r.IsActive,
	}, nil
}

// nonNil keeps empty slices encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (*domain.Route, error) {
	var (
		r                        domain.Route
		waypoints, dest, vtypes  string
		limits, danger, restrict string
		createdAt                string
	)
	err := row.Scan(
		&r.ID, &r.Name, &r.Description, &waypoints, &dest, &vtypes, &limits,
		&danger, &restrict, &r.EstimatedTime, &r.Distance, &createdAt, &r.IsActive,
	)
	if err != nil {
		return nil, err
	}

	decode := []struct {
		raw string
		dst any
	}{
		{waypoints, &r.Waypoints},
		{dest, &r.Destination},
		{vtypes, &r.VehicleTypes},
		{limits, &r.SpeedLimits},
		{danger, &r.DangerZones},
		{restrict, &r.RestrictedZones},
	}
	for _, d := range decode {
		if err := fromJSON(d.raw, d.dst); err != nil {
			return nil, fmt.Errorf("decode route %s: %w", r.ID, err)
		}
	}

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLStore) FindRoute(ctx context.Context, id string) (_ *domain.Route, err error) {
	defer s.timer(ctx, "store.FindRoute")(&err)

	if err := s.ready("find route"); err != nil {
		return nil, err
	}

	q := `SELECT ` + routeColumns + ` FROM routes WHERE id = ?`
	r, err := scanRoute(s.queryRow(ctx, q, id))
	if err != nil {
		return nil, s.classify(fmt.Sprintf("find route %s", id), err)
	}
	return r, nil
}

func (s *SQLStore) ListRoutes(ctx context.Context) (_ []*domain.Route, err error) {
	defer s.timer(ctx, "store.ListRoutes")(&err)

	if err := s.ready("list routes"); err != nil {
		return nil, err
	}

	q := `SELECT ` + routeColumns + ` FROM routes WHERE is_active = ? ORDER BY name`
	rows, err := s.query(ctx, q, true)
	if err != nil {
		return nil, s.classify("list routes: query routes table", err)
	}
	defer rows.Close()

	routes := make([]*domain.Route, 0, 32)
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("list routes: row iteration", err)
	}

	return routes, nil
}

func (s *SQLStore) InsertRoute(ctx context.Context, r *domain.Route) (err error) {
	defer s.timer(ctx, "store.InsertRoute")(&err)

	if err := s.ready("insert route"); err != nil {
		return err
	}
	if r.ID == "" {
		return fmt.Errorf("insert route: %w: %w", errEmptyID, domain.ErrValidation)
	}

	args, err := routeArgs(r)
	if err != nil {
		return fmt.Errorf("insert route %s: %w", r.ID, err)
	}
	if _, err := s.exec(ctx, insertRouteQuery, args...); err != nil {
		return s.classify(fmt.Sprintf("insert route %s", r.ID), err)
	}
	return nil
}

func (s *SQLStore) UpdateRoute(ctx context.Context, r *domain.Route) (err error) {
	defer s.timer(ctx, "store.UpdateRoute")(&err)

	if err := s.ready("update route"); err != nil {
		return err
	}

	args, err := routeArgs(r)
	if err != nil {
		return fmt.Errorf("update route %s: %w", r.ID, err)
	}

	q := `
	UPDATE routes SET
		name = ?, description = ?, waypoints = ?, destination = ?, vehicle_types = ?,
		speed_limits = ?, danger_zones = ?, restricted_zones = ?, estimated_time = ?,
		distance = ?, is_active = ?
	WHERE id = ?`
	// created_at is never rewritten.
	upd := append(append([]any{}, args[1:11]...), args[12], args[0])
	res, err := s.exec(ctx, q, upd...)
	if err != nil {
		return s.classify(fmt.Sprintf("update route %s", r.ID), err)
	}
	return expectOne(fmt.Sprintf("update route %s", r.ID), res)
}

func (s *SQLStore) DeactivateRoute(ctx context.Context, id string) (err error) {
	defer s.timer(ctx, "store.DeactivateRoute")(&err)

	if err := s.ready("deactivate route"); err != nil {
		return err
	}

	res, err := s.exec(ctx, `UPDATE routes SET is_active = ? WHERE id = ?`, false, id)
	if err != nil {
		return s.classify(fmt.Sprintf("deactivate route %s", id), err)
	}
	return expectOne(fmt.Sprintf("deactivate route %s", id), res)
}
