package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitetrack-service/internal/domain"
)

func testRoute() *domain.Route {
	return &domain.Route{
		ID:   "R1",
		Name: "Gate to depot",
		Waypoints: []domain.Waypoint{
			{Lat: 48.8000, Lng: 2.1200, Name: "gate", Order: 1},
			{Lat: 48.8005, Lng: 2.1205, Name: "yard", Order: 2},
		},
	}
}

func testDelivery() *domain.Delivery {
	return &domain.Delivery{ID: "DL1", RouteID: "R1", DriverName: "Alice", Status: domain.DeliveryInProgress}
}

func report(lat, lng, speed float64) domain.LocationReport {
	return domain.LocationReport{
		DriverID:   "D1",
		DeliveryID: "DL1",
		Latitude:   lat,
		Longitude:  lng,
		Speed:      speed,
		Timestamp:  time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestEvaluateNoRoute(t *testing.T) {
	e := NewEvaluator(DefaultPolicy())

	res := e.Evaluate(report(0, 0, 120), nil, nil)
	assert.Empty(t, res.Alerts)
	assert.Equal(t, domain.StatusEnRoute, res.Status)

	res = e.Evaluate(report(0, 0, 120), testDelivery(), nil)
	assert.Empty(t, res.Alerts)
	assert.Equal(t, domain.StatusEnRoute, res.Status)
}

func TestEvaluateDeviation(t *testing.T) {
	e := NewEvaluator(DefaultPolicy())

	res := e.Evaluate(report(48.90, 2.20, 10), testDelivery(), testRoute())
	require.Len(t, res.Alerts, 1)

	a := res.Alerts[0]
	assert.Equal(t, domain.AlertDeviation, a.Kind)
	assert.Equal(t, domain.SeverityMedium, a.Severity)
	assert.Equal(t, DeviationMessage, a.Message)
	assert.Equal(t, "Alice", a.DriverName)
	assert.Equal(t, "DL1", a.DeliveryID)
	assert.Equal(t, 48.90, a.Latitude)
	assert.Empty(t, a.ID)
	assert.Equal(t, domain.StatusDeviation, res.Status)
}

func TestEvaluateSpeedDoesNotChangeStatus(t *testing.T) {
	e := NewEvaluator(DefaultPolicy())

	res := e.Evaluate(report(48.8000, 2.1200, 45), testDelivery(), testRoute())
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, domain.AlertSpeed, res.Alerts[0].Kind)
	assert.Equal(t, domain.SeverityHigh, res.Alerts[0].Severity)
	assert.Contains(t, res.Alerts[0].Message, "45.0 km/h")
	assert.Equal(t, domain.StatusEnRoute, res.Status)
}

func TestEvaluateSpeedThreshold(t *testing.T) {
	e := NewEvaluator(DefaultPolicy())

	cases := []struct {
		speed float64
		fires bool
	}{
		{0, false},
		{29.9, false},
		{30, false},
		{30.01, true},
		{45.67, true},
	}

	for _, tc := range cases {
		res := e.Evaluate(report(48.8000, 2.1200, tc.speed), testDelivery(), testRoute())
		assert.Equal(t, tc.fires, len(res.Alerts) == 1, "speed %v", tc.speed)
	}

	res := e.Evaluate(report(48.8000, 2.1200, 45.67), testDelivery(), testRoute())
	require.Len(t, res.Alerts, 1)
	assert.Contains(t, res.Alerts[0].Message, "45.7")
}

func TestEvaluateDeviationAndSpeed(t *testing.T) {
	e := NewEvaluator(DefaultPolicy())

	res := e.Evaluate(report(48.90, 2.20, 80), nil, testRoute())
	require.Len(t, res.Alerts, 2)
	assert.Equal(t, domain.AlertDeviation, res.Alerts[0].Kind)
	assert.Equal(t, domain.AlertSpeed, res.Alerts[1].Kind)
	assert.Equal(t, UnknownDriver, res.Alerts[0].DriverName)
	assert.Equal(t, domain.StatusDeviation, res.Status)
}

func TestEvaluateIsPure(t *testing.T) {
	e := NewEvaluator(DefaultPolicy())
	r := report(48.90, 2.20, 55)

	first := e.Evaluate(r, testDelivery(), testRoute())
	second := e.Evaluate(r, testDelivery(), testRoute())
	assert.Equal(t, first, second)
}

func TestEvaluateRouteWithoutWaypoints(t *testing.T) {
	e := NewEvaluator(DefaultPolicy())
	route := &domain.Route{ID: "R0", Name: "empty"}

	res := e.Evaluate(report(10, 10, 5), testDelivery(), route)
	assert.Empty(t, res.Alerts)
	assert.Equal(t, domain.StatusEnRoute, res.Status)
}

func TestEmergencyAlwaysCritical(t *testing.T) {
	e := NewEvaluator(DefaultPolicy())

	a := e.Emergency(domain.EmergencyReport{DriverID: "D1", Latitude: 1, Longitude: 2})
	assert.Equal(t, domain.AlertEmergency, a.Kind)
	assert.Equal(t, domain.SeverityCritical, a.Severity)
	assert.Equal(t, EmergencyMessage, a.Message)
	assert.Equal(t, UnknownDriver, a.DriverName)
	assert.False(t, a.CreatedAt.IsZero())

	a = e.Emergency(domain.EmergencyReport{DriverID: "D1", DriverName: "Bob", Message: "flat tyre"})
	assert.Equal(t, "flat tyre", a.Message)
	assert.Equal(t, "Bob", a.DriverName)
}

func TestNewEvaluatorDefaults(t *testing.T) {
	e := NewEvaluator(Policy{})
	assert.Equal(t, DefaultPolicy(), e.Policy())
}
