package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/events"
	"sitetrack-service/internal/hub/hubtest"
	"sitetrack-service/internal/ports"
)

func TestProcessLocationDeviation(t *testing.T) {
	env := newEnv(t, false)
	env.seedDelivery(t)
	ctx := context.Background()

	obs := hubtest.NewConn("obs", 16)
	require.NoError(t, env.tracker.ObserverConnected(obs))

	got, err := env.tracker.ProcessLocation(ctx, domain.LocationReport{
		DriverID: "D1", DeliveryID: "d1", Latitude: 48.90, Longitude: 2.20, Speed: 10,
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, domain.AlertDeviation, a.Kind)
	assert.Equal(t, domain.SeverityMedium, a.Severity)
	assert.Equal(t, "route deviation detected", a.Message)
	assert.Equal(t, "Alice", a.DriverName)
	assert.Equal(t, "id-1", a.ID)
	assert.Equal(t, testNow, a.CreatedAt)

	v, ok := env.registry.Get("D1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusDeviation, v.Status)
	assert.Equal(t, "Château loop", v.RouteName)
	assert.Equal(t, "van", v.VehicleType)
	assert.Len(t, v.Alerts, 1)

	updates := obs.OfKind(events.KindLocationUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, domain.StatusDeviation, updates[0].(events.LocationUpdate).Vehicle.Status)

	stored, err := env.store.ListAlerts(ctx, ports.AlertFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "id-1", stored[0].ID)

	history, err := env.tracker.History(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	assert.Len(t, env.publisher.published(), 1)
}

func TestProcessLocationSpeeding(t *testing.T) {
	env := newEnv(t, false)
	env.seedDelivery(t)

	got, err := env.tracker.ProcessLocation(context.Background(), domain.LocationReport{
		DriverID: "D1", DeliveryID: "d1", Latitude: 48.8049, Longitude: 2.1201, Speed: 45,
	})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, domain.AlertSpeed, got[0].Kind)
	assert.Equal(t, domain.SeverityHigh, got[0].Severity)
	assert.Equal(t, "excessive speed: 45.0 km/h", got[0].Message)

	v, _ := env.registry.Get("D1")
	assert.Equal(t, domain.StatusEnRoute, v.Status)
}

func TestProcessLocationWithoutDelivery(t *testing.T) {
	env := newEnv(t, false)

	got, err := env.tracker.ProcessLocation(context.Background(), domain.LocationReport{
		DriverID: "D9", DeliveryID: "unknown", Latitude: 10, Longitude: 10, Speed: 200,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	v, ok := env.registry.Get("D9")
	require.True(t, ok)
	assert.Equal(t, domain.StatusEnRoute, v.Status)
	assert.Equal(t, DefaultDriverName, v.DriverName)
	assert.Equal(t, DefaultVehicleType, v.VehicleType)
	assert.Equal(t, testNow, v.LastUpdate)
}

func TestProcessLocationStoreUnavailable(t *testing.T) {
	env := newEnv(t, true)

	obs := hubtest.NewConn("obs", 16)
	require.NoError(t, env.tracker.ObserverConnected(obs))

	got, err := env.tracker.ProcessLocation(context.Background(), domain.LocationReport{
		DriverID: "D1", DeliveryID: "d1", Latitude: 48.8, Longitude: 2.1,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, env.tracker.ActiveDriverCount())
	assert.Len(t, obs.OfKind(events.KindLocationUpdate), 1)

	_, err = env.tracker.History(context.Background(), "d1")
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestProcessLocationRejectsInvalidReport(t *testing.T) {
	env := newEnv(t, false)

	for name, r := range map[string]domain.LocationReport{
		"no driver":      {Latitude: 1, Longitude: 1},
		"bad latitude":   {DriverID: "D1", Latitude: 91, Longitude: 1},
		"negative speed": {DriverID: "D1", Speed: -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.tracker.ProcessLocation(context.Background(), r)
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
		})
	}
	assert.Equal(t, 0, env.registry.Len())
}

func TestProcessLocationPublishFailureIsNotFatal(t *testing.T) {
	env := newEnv(t, false)
	env.seedDelivery(t)
	env.publisher.err = errors.New("nats down")

	got, err := env.tracker.ProcessLocation(context.Background(), domain.LocationReport{
		DriverID: "D1", DeliveryID: "d1", Latitude: 48.90, Longitude: 2.20,
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReportEmergency(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	obs := hubtest.NewConn("obs", 16)
	require.NoError(t, env.tracker.ObserverConnected(obs))

	a, err := env.tracker.ReportEmergency(ctx, domain.EmergencyReport{DriverID: "D1", Latitude: 48.8, Longitude: 2.1})
	require.NoError(t, err)
	assert.Equal(t, domain.AlertEmergency, a.Kind)
	assert.Equal(t, domain.SeverityCritical, a.Severity)
	assert.Equal(t, "emergency reported by driver", a.Message)
	assert.NotEmpty(t, a.ID)

	em := obs.OfKind(events.KindEmergency)
	require.Len(t, em, 1)
	assert.Equal(t, a.ID, em[0].(events.Emergency).Alert.ID)

	unresolved := false
	n, err := env.store.CountAlerts(ctx, ports.AlertFilter{Resolved: &unresolved, Severity: domain.SeverityCritical})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = env.tracker.ReportEmergency(ctx, domain.EmergencyReport{})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestReportEmergencyBroadcastsWhenStoreDown(t *testing.T) {
	env := newEnv(t, true)

	obs := hubtest.NewConn("obs", 16)
	require.NoError(t, env.tracker.ObserverConnected(obs))

	_, err := env.tracker.ReportEmergency(context.Background(), domain.EmergencyReport{DriverID: "D1"})
	require.NoError(t, err)
	assert.Len(t, obs.OfKind(events.KindEmergency), 1)
}

func TestObserverBaselineComesFirst(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	_, err := env.tracker.ProcessLocation(ctx, domain.LocationReport{DriverID: "D1", Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	_, err = env.tracker.ProcessLocation(ctx, domain.LocationReport{DriverID: "D2", Latitude: 2, Longitude: 2})
	require.NoError(t, err)

	obs := hubtest.NewConn("obs", 16)
	require.NoError(t, env.tracker.ObserverConnected(obs))
	_, err = env.tracker.ProcessLocation(ctx, domain.LocationReport{DriverID: "D1", Latitude: 3, Longitude: 3})
	require.NoError(t, err)

	evs := obs.Events()
	require.Len(t, evs, 2)
	baseline, ok := evs[0].(events.ActiveDrivers)
	require.True(t, ok)
	assert.Len(t, baseline.Vehicles, 2)
	assert.Equal(t, events.KindLocationUpdate, evs[1].Kind())
}

func TestDriverDisconnectedBroadcastsOnce(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	obs := hubtest.NewConn("obs", 16)
	require.NoError(t, env.tracker.ObserverConnected(obs))

	drv := hubtest.NewConn("drv-1", 16)
	env.tracker.DriverConnected("D1", drv)
	assert.Equal(t, 0, env.registry.Len())

	_, err := env.tracker.ProcessLocation(ctx, domain.LocationReport{DriverID: "D1", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	env.tracker.DriverDisconnected("D1", drv)

	_, ok := env.registry.Get("D1")
	assert.False(t, ok)
	got := obs.OfKind(events.KindDriverDisconnected)
	require.Len(t, got, 1)
	assert.Equal(t, "D1", got[0].(events.DriverDisconnected).DriverID)
}

func TestReplacedConnectionClosingLastBroadcastsOnce(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	obs := hubtest.NewConn("obs", 16)
	require.NoError(t, env.tracker.ObserverConnected(obs))

	first := hubtest.NewConn("drv-a", 16)
	env.tracker.DriverConnected("D1", first)
	_, err := env.tracker.ProcessLocation(ctx, domain.LocationReport{DriverID: "D1", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	second := hubtest.NewConn("drv-b", 16)
	env.tracker.DriverConnected("D1", second)

	// The replacement closes first; the replaced connection's teardown comes last.
	env.tracker.DriverDisconnected("D1", second)
	env.tracker.DriverDisconnected("D1", first)

	assert.Len(t, obs.OfKind(events.KindDriverDisconnected), 1)
	assert.Equal(t, 0, env.registry.Len())
	assert.Equal(t, 0, env.hub.DriverCount())
}

func TestDriverDisconnectedAfterSendFailure(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	obs := hubtest.NewConn("obs", 16)
	require.NoError(t, env.tracker.ObserverConnected(obs))

	drv := hubtest.NewConn("drv-1", 16)
	env.tracker.DriverConnected("D1", drv)
	_, err := env.tracker.ProcessLocation(ctx, domain.LocationReport{DriverID: "D1", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	drv.Break()
	err = env.tracker.MessageDriver("D1", "hello")
	assert.True(t, errors.Is(err, domain.ErrTransport), "got %v", err)
	assert.True(t, drv.Closed())
	assert.Equal(t, 0, env.hub.DriverCount())

	env.tracker.DriverDisconnected("D1", drv)
	env.tracker.DriverDisconnected("D1", drv)

	assert.Len(t, obs.OfKind(events.KindDriverDisconnected), 1)
	_, ok := env.registry.Get("D1")
	assert.False(t, ok)
}

func TestSendFailureRacingDisconnectBroadcastsOnce(t *testing.T) {
	for i := 0; i < 20; i++ {
		env := newEnv(t, true)

		obs := hubtest.NewConn("obs", 16)
		require.NoError(t, env.tracker.ObserverConnected(obs))

		drv := hubtest.NewConn("drv-1", 16)
		env.tracker.DriverConnected("D1", drv)
		_, err := env.tracker.ProcessLocation(context.Background(), domain.LocationReport{DriverID: "D1", Latitude: 1, Longitude: 1})
		require.NoError(t, err)
		drv.Break()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = env.tracker.MessageDriver("D1", "hello")
		}()
		go func() {
			defer wg.Done()
			env.tracker.DriverDisconnected("D1", drv)
		}()
		wg.Wait()

		require.Len(t, obs.OfKind(events.KindDriverDisconnected), 1, "iteration %d", i)
		assert.Equal(t, 0, env.registry.Len())
		assert.Equal(t, 0, env.hub.DriverCount())
	}
}

func TestReportLocationTracksConnectedDriversOnly(t *testing.T) {
	env := newEnv(t, false)
	env.seedDelivery(t)
	ctx := context.Background()

	obs := hubtest.NewConn("obs", 16)
	require.NoError(t, env.tracker.ObserverConnected(obs))

	got, err := env.tracker.ReportLocation(ctx, domain.LocationReport{
		DriverID: "D1", DeliveryID: "d1", Latitude: 48.90, Longitude: 2.20,
	})
	require.NoError(t, err)
	assert.Len(t, got, 1, "alerts are still evaluated")
	assert.Equal(t, 0, env.registry.Len())
	assert.Empty(t, obs.OfKind(events.KindLocationUpdate))

	history, err := env.tracker.History(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	env.tracker.DriverConnected("D1", hubtest.NewConn("drv-1", 16))
	_, err = env.tracker.ReportLocation(ctx, domain.LocationReport{DriverID: "D1", DeliveryID: "d1", Latitude: 48.8049, Longitude: 2.1201})
	require.NoError(t, err)

	_, ok := env.registry.Get("D1")
	assert.True(t, ok)
	assert.Len(t, obs.OfKind(events.KindLocationUpdate), 1)

	_, err = env.tracker.ReportLocation(ctx, domain.LocationReport{DriverID: "D1", Latitude: 95})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestDriverReconnectKeepsNewConnection(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	obs := hubtest.NewConn("obs", 16)
	require.NoError(t, env.tracker.ObserverConnected(obs))

	old := hubtest.NewConn("drv-old", 16)
	env.tracker.DriverConnected("D1", old)
	_, err := env.tracker.ProcessLocation(ctx, domain.LocationReport{DriverID: "D1", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	fresh := hubtest.NewConn("drv-new", 16)
	env.tracker.DriverConnected("D1", fresh)
	assert.True(t, old.Closed())

	// The old connection's teardown arrives after the replacement.
	env.tracker.DriverDisconnected("D1", old)

	_, ok := env.registry.Get("D1")
	assert.True(t, ok)
	assert.Empty(t, obs.OfKind(events.KindDriverDisconnected))

	require.NoError(t, env.tracker.MessageDriver("D1", "hello"))
	msgs := fresh.OfKind(events.KindAdminMessage)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].(events.AdminMessage).Message)
}

func TestMessageDriverUnknown(t *testing.T) {
	env := newEnv(t, false)

	err := env.tracker.MessageDriver("ghost", "hi")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestObserverDisconnected(t *testing.T) {
	env := newEnv(t, false)

	obs := hubtest.NewConn("obs", 16)
	require.NoError(t, env.tracker.ObserverConnected(obs))
	env.tracker.ObserverDisconnected(obs)
	assert.Equal(t, 0, env.hub.ObserverCount())

	_, err := env.tracker.ProcessLocation(context.Background(), domain.LocationReport{DriverID: "D1"})
	require.NoError(t, err)
	assert.Len(t, obs.Events(), 1, "only the baseline")
}

func TestConcurrentDriversKeepLatestReport(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	const drivers, reports = 8, 25
	var wg sync.WaitGroup
	for d := 0; d < drivers; d++ {
		wg.Add(1)
		go func(d int) {
			defer wg.Done()
			id := string(rune('A' + d))
			for i := 1; i <= reports; i++ {
				_, err := env.tracker.ProcessLocation(ctx, domain.LocationReport{
					DriverID: id, Latitude: float64(i), Longitude: float64(d),
				})
				assert.NoError(t, err)
			}
		}(d)
	}
	wg.Wait()

	snap := env.tracker.ActiveVehicles()
	require.Len(t, snap, drivers)
	for _, v := range snap {
		assert.Equal(t, float64(reports), v.Latitude, "driver %s", v.DriverID)
	}
}
