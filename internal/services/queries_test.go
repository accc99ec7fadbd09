package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitetrack-service/internal/catalog"
	"sitetrack-service/internal/domain"
)

func TestNearestCamera(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	svc := NewCameraService(cat)

	got, err := svc.Nearest(domain.Coordinates{Lat: 48.8121, Lng: 2.1101})
	require.NoError(t, err)
	assert.Equal(t, "cam-grand-trianon", got.Camera.ID)
	assert.Less(t, got.Distance, 50.0)

	_, err = svc.Nearest(domain.Coordinates{Lat: 100, Lng: 0})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestNearestCameraTieBreaksByID(t *testing.T) {
	cat, err := catalog.Parse([]byte(`
site: {name: s}
cameras:
  - {id: cam-b, name: B, location: {lat: 1, lng: 1}, is_active: true}
  - {id: cam-a, name: A, location: {lat: 1, lng: 1}, is_active: true}
  - {id: cam-c, name: C, location: {lat: 1, lng: 1}, is_active: false}
`))
	require.NoError(t, err)
	svc := NewCameraService(cat)

	got, err := svc.Nearest(domain.Coordinates{Lat: 1, Lng: 1})
	require.NoError(t, err)
	assert.Equal(t, "cam-a", got.Camera.ID)
	assert.Equal(t, 0.0, got.Distance)
	assert.Len(t, svc.List(), 2)
}

func TestNearestCameraNone(t *testing.T) {
	svc := NewCameraService(nil)
	_, err := svc.Nearest(domain.Coordinates{Lat: 1, Lng: 1})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDashboardStats(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	deliveries := newDeliveryService(env)

	a, err := deliveries.Create(ctx, NewDelivery{RouteID: "route-chateau"})
	require.NoError(t, err)
	b, err := deliveries.Create(ctx, NewDelivery{RouteID: "route-chateau"})
	require.NoError(t, err)
	_, err = deliveries.Create(ctx, NewDelivery{RouteID: "route-chateau"})
	require.NoError(t, err)

	_, err = deliveries.UpdateStatus(ctx, a.ID, "in_progress")
	require.NoError(t, err)
	_, err = deliveries.UpdateStatus(ctx, b.ID, "in_progress")
	require.NoError(t, err)
	_, err = deliveries.UpdateStatus(ctx, b.ID, "completed")
	require.NoError(t, err)

	old := &domain.Delivery{ID: "old", RouteID: "route-chateau", Status: domain.DeliveryPending, CreatedAt: testNow.Add(-48 * time.Hour)}
	require.NoError(t, env.store.InsertDelivery(ctx, old))

	_, err = env.tracker.ReportEmergency(ctx, domain.EmergencyReport{DriverID: "D1"})
	require.NoError(t, err)
	_, err = env.tracker.ProcessLocation(ctx, domain.LocationReport{DriverID: "D2", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	svc := NewStatsService(env.store, env.tracker.ActiveDriverCount)
	svc.now = func() time.Time { return testNow }

	st, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, DashboardStats{
		TotalDeliveries:   4,
		TodayDeliveries:   3,
		PendingDeliveries: 2,
		InProgress:        1,
		CompletedToday:    1,
		ActiveDrivers:     1,
		ActiveAlerts:      1,
		CriticalAlerts:    1,
	}, st)
}

func TestDashboardStatsStoreDown(t *testing.T) {
	env := newEnv(t, true)
	svc := NewStatsService(env.store, env.tracker.ActiveDriverCount)

	_, err := svc.Dashboard(context.Background())
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestAlertServiceListAndResolve(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	svc := NewAlertService(env.store)

	a, err := env.tracker.ReportEmergency(ctx, domain.EmergencyReport{DriverID: "D1"})
	require.NoError(t, err)

	unresolved := false
	open, err := svc.List(ctx, &unresolved)
	require.NoError(t, err)
	require.Len(t, open, 1)

	require.NoError(t, svc.Resolve(ctx, a.ID))
	open, err = svc.List(ctx, &unresolved)
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsResolved)

	assert.True(t, errors.Is(svc.Resolve(ctx, "missing"), domain.ErrNotFound))
}

func TestUserServiceCreate(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	svc := NewUserService(env.store)

	u, err := svc.Create(ctx, NewUser{Email: " Dana@Example.com ", Name: "Dana", Role: "driver", VehicleType: "van"})
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", u.Email)
	assert.True(t, u.IsActive)

	_, err = svc.Create(ctx, NewUser{Email: "dana@example.com", Name: "Dup", Role: "driver"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.Create(ctx, NewUser{Email: "not-an-email", Name: "X", Role: "driver"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.Create(ctx, NewUser{Email: "x@example.com", Name: "X", Role: "pilot"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
