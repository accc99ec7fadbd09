package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"sitetrack-service/internal/adapters/repositories"
	"sitetrack-service/internal/alerts"
	"sitetrack-service/internal/catalog"
	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/hub"
	"sitetrack-service/internal/platform/db"
	"sitetrack-service/internal/tracking"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	alerts []domain.Alert
	err    error
}

func (p *recordingPublisher) PublishAlert(_ context.Context, a *domain.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.alerts = append(p.alerts, *a)
	return nil
}

func (p *recordingPublisher) published() []domain.Alert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Alert(nil), p.alerts...)
}

type testEnv struct {
	store     *repositories.SQLStore
	catalog   *catalog.Catalog
	resolver  *RouteResolver
	registry  *tracking.Registry
	hub       *hub.Hub
	publisher *recordingPublisher
	tracker   *Tracker
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// newEnv wires a tracker over an in-memory SQLite store, or over an
// unavailable store when offline is true.
func newEnv(t *testing.T, offline bool) *testEnv {
	t.Helper()

	log := quietLogger()
	ctx := context.Background()

	var store *repositories.SQLStore
	if offline {
		store = repositories.NewSQLStore(nil, "sqlite", log)
	} else {
		conn, err := db.Open(ctx, "sqlite", ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		require.NoError(t, repositories.InitSchema(ctx, conn))
		store = repositories.NewSQLStore(conn, "sqlite", log)
	}

	cat, err := catalog.Default()
	require.NoError(t, err)

	var seq atomic.Int64
	env := &testEnv{
		store:     store,
		catalog:   cat,
		resolver:  NewRouteResolver(store, nil, cat, log),
		registry:  tracking.NewRegistry(),
		hub:       hub.New(log),
		publisher: &recordingPublisher{},
	}
	env.tracker = NewTracker(TrackerDeps{
		Store:     store,
		Routes:    env.resolver,
		Evaluator: alerts.NewEvaluator(alerts.DefaultPolicy()),
		Registry:  env.registry,
		Hub:       env.hub,
		Publisher: env.publisher,
		Log:       log,
		Now:       func() time.Time { return testNow },
		NewID:     func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	})
	return env
}

// chateauRoute has a single waypoint at the Place d'Armes.
func chateauRoute() domain.Route {
	return domain.Route{
		ID:        "r1",
		Name:      "Château loop",
		Waypoints: []domain.Waypoint{{Lat: 48.8049, Lng: 2.1201, Name: "Place d'Armes", Order: 1}},
		IsActive:  true,
		CreatedAt: testNow,
	}
}

// seedDelivery stores route r1 and an in-progress delivery d1 driven by Alice.
func (e *testEnv) seedDelivery(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	r := chateauRoute()
	require.NoError(t, e.store.InsertRoute(ctx, &r))
	require.NoError(t, e.store.InsertDelivery(ctx, &domain.Delivery{
		ID:           "d1",
		DriverID:     "D1",
		DriverName:   "Alice",
		RouteID:      "r1",
		RouteName:    r.Name,
		Status:       domain.DeliveryInProgress,
		VehicleType:  "van",
		LicensePlate: "AB-123-CD",
		CreatedAt:    testNow,
	}))
}
