package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/platform/db"
	"sitetrack-service/internal/ports"
)

var _ ports.Store = (*SQLStore)(nil)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, InitSchema(ctx, conn))

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return NewSQLStore(conn, "sqlite", log)
}

func testRoute(id string) domain.Route {
	return domain.Route{
		ID:   id,
		Name: "Route " + id,
		Waypoints: []domain.Waypoint{
			{Lat: 48.8049, Lng: 2.1201, Name: "start", Order: 1},
			{Lat: 48.8055, Lng: 2.1220, Name: "end", Order: 2},
		},
		Destination:  domain.Destination{Lat: 48.8055, Lng: 2.1220, Name: "end", Type: "market"},
		VehicleTypes: []string{"car", "van"},
		SpeedLimits:  []domain.SpeedLimit{{Start: 0, End: 2, Limit: 30}},
		DangerZones:  []domain.Zone{{Lat: 48.805, Lng: 2.12, Radius: 50, Description: "crossing"}},
		IsActive:     true,
		CreatedAt:    time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestRebind(t *testing.T) {
	s := &SQLStore{Driver: "pgx"}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", s.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	s.Driver = "sqlite"
	assert.Equal(t, "x = ?", s.rebind("x = ?"))
}

func TestNilDBIsStoreUnavailable(t *testing.T) {
	s := NewSQLStore(nil, "sqlite", nil)
	ctx := context.Background()

	err := s.Ping(ctx)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))

	_, err = s.FindDelivery(ctx, "x")
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))

	err = s.InsertLocationHistory(ctx, domain.LocationReport{DriverID: "D1"})
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))

	err = InitSchema(ctx, nil)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestRouteRoundTripAndSoftDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := testRoute("r1")
	require.NoError(t, s.InsertRoute(ctx, &r))

	got, err := s.FindRoute(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, r.Waypoints, got.Waypoints)
	assert.Equal(t, r.Destination, got.Destination)
	assert.Equal(t, r.SpeedLimits, got.SpeedLimits)
	assert.Equal(t, []domain.Zone{}, got.RestrictedZones)
	assert.True(t, got.CreatedAt.Equal(r.CreatedAt))

	r.Name = "Renamed"
	require.NoError(t, s.UpdateRoute(ctx, &r))
	got, err = s.FindRoute(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	require.NoError(t, s.DeactivateRoute(ctx, "r1"))
	list, err := s.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err = s.FindRoute(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = s.FindRoute(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(s.DeactivateRoute(ctx, "missing"), domain.ErrNotFound))
}

func TestSeedRoutesIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	routes := []domain.Route{testRoute("a"), testRoute("b")}
	n, err := s.SeedRoutes(ctx, routes)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.SeedRoutes(ctx, routes)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	list, err := s.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDeliveryLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	d := &domain.Delivery{ID: "d1", RouteID: "r1", RouteName: "Route r1", Status: domain.DeliveryPending, CreatedAt: created}
	require.NoError(t, s.InsertDelivery(ctx, d))
	require.NoError(t, s.InsertDelivery(ctx, &domain.Delivery{
		ID: "d2", RouteID: "r1", Status: domain.DeliveryPending, CreatedAt: created.Add(time.Hour),
	}))

	status := domain.DeliveryInProgress
	start := created.Add(10 * time.Minute)
	driverID, driverName := "u1", "Alice"
	require.NoError(t, s.UpdateDeliveryFields(ctx, "d1", ports.DeliveryUpdate{
		Status: &status, StartTime: &start, DriverID: &driverID, DriverName: &driverName,
	}))

	got, err := s.FindDelivery(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryInProgress, got.Status)
	assert.Equal(t, "Alice", got.DriverName)
	require.NotNil(t, got.StartTime)
	assert.True(t, got.StartTime.Equal(start))
	assert.Nil(t, got.EndTime)

	list, err := s.ListDeliveries(ctx, ports.DeliveryFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "d2", list[0].ID, "newest first")

	n, err := s.CountDeliveries(ctx, ports.DeliveryFilter{Status: domain.DeliveryPending})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.CountDeliveries(ctx, ports.DeliveryFilter{CreatedSince: created.Add(30 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = s.UpdateDeliveryFields(ctx, "missing", ports.DeliveryUpdate{Status: &status})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = s.FindDelivery(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestLocationHistoryOrderedByTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{2 * time.Second, 0, time.Second} {
		require.NoError(t, s.InsertLocationHistory(ctx, domain.LocationReport{
			DriverID: "D1", DeliveryID: "d1", Latitude: 48.8, Longitude: 2.1,
			Speed: offset.Seconds(), Timestamp: base.Add(offset),
		}))
	}
	require.NoError(t, s.InsertLocationHistory(ctx, domain.LocationReport{DriverID: "D2", DeliveryID: "other", Timestamp: base}))

	got, err := s.ListLocationHistory(ctx, "d1", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, float64(i), r.Speed)
	}

	got, err = s.ListLocationHistory(ctx, "d1", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAlertsResolveAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, sev := range []domain.Severity{domain.SeverityMedium, domain.SeverityCritical} {
		require.NoError(t, s.InsertAlert(ctx, &domain.Alert{
			ID: []string{"a1", "a2"}[i], DriverID: "D1", Kind: domain.AlertDeviation,
			Message: "m", Severity: sev, CreatedAt: at.Add(time.Duration(i) * time.Minute),
		}))
	}

	require.NoError(t, s.ResolveAlert(ctx, "a1", at.Add(time.Hour)))
	assert.True(t, errors.Is(s.ResolveAlert(ctx, "nope", at), domain.ErrNotFound))

	unresolved := false
	open, err := s.ListAlerts(ctx, ports.AlertFilter{Resolved: &unresolved}, 100)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "a2", open[0].ID)

	all, err := s.ListAlerts(ctx, ports.AlertFilter{}, 100)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a2", all[0].ID)
	assert.True(t, all[1].IsResolved)
	require.NotNil(t, all[1].ResolvedAt)

	n, err := s.CountAlerts(ctx, ports.AlertFilter{Resolved: &unresolved, Severity: domain.SeverityCritical})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = s.InsertAlert(ctx, &domain.Alert{DriverID: "D1"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &domain.User{
		ID: "u1", Email: "Driver@Example.com", Name: "Dee", Role: domain.RoleDriver,
		VehicleType: "van", LicensePlate: "AB-123-CD", IsActive: true, CreatedAt: time.Now(),
	}
	require.NoError(t, s.InsertUser(ctx, u))

	got, err := s.FindUserByEmail(ctx, "driver@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, domain.RoleDriver, got.Role)

	got, err = s.FindUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "AB-123-CD", got.LicensePlate)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = s.FindUserByID(ctx, "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	assert.Error(t, s.InsertUser(ctx, &domain.User{ID: "u2", Email: "driver@example.com", Name: "x", Role: domain.RoleDriver}))
}
