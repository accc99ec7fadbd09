package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/alerts"
	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/events"
	"sitetrack-service/internal/hub"
	"sitetrack-service/internal/ports"
	"sitetrack-service/internal/tracking"
)

// Display defaults for a vehicle whose report names no known delivery.
const (
	DefaultDriverName  = "driver"
	DefaultVehicleType = "truck"
)

// Most history points returned for one delivery.
const HistoryLimit = 1000

// TrackerStore is the part of the store the ingestion pipeline writes to.
type TrackerStore interface {
	ports.DeliveryRepository
	ports.LocationHistoryRepository
	ports.AlertRepository
}

type TrackerDeps struct {
	Store     TrackerStore
	Routes    *RouteResolver
	Evaluator *alerts.Evaluator
	Registry  *tracking.Registry
	Hub       *hub.Hub
	// Optional; nil disables alert fan-out to other systems.
	Publisher ports.AlertPublisher
	Log       logrus.FieldLogger

	Now   func() time.Time
	NewID func() string
}

// Tracker runs the location ingestion pipeline and the connection lifecycle
// of drivers and observers.
//
// Persistence, route lookup and publishing failures are logged and never
// stop a report from reaching the registry and observers.
type Tracker struct {
	store     TrackerStore
	routes    *RouteResolver
	eval      *alerts.Evaluator
	registry  *tracking.Registry
	hub       *hub.Hub
	publisher ports.AlertPublisher
	log       logrus.FieldLogger
	now       func() time.Time
	newID     func() string
}

func NewTracker(d TrackerDeps) *Tracker {
	t := &Tracker{
		store:     d.Store,
		routes:    d.Routes,
		eval:      d.Evaluator,
		registry:  d.Registry,
		hub:       d.Hub,
		publisher: d.Publisher,
		log:       d.Log,
		now:       d.Now,
		newID:     d.NewID,
	}
	if t.log == nil {
		t.log = logrus.StandardLogger()
	}
	t.log = t.log.WithField("component", "tracker")
	if t.eval == nil {
		t.eval = alerts.NewEvaluator(alerts.DefaultPolicy())
	}
	if t.now == nil {
		t.now = func() time.Time { return time.Now().UTC() }
	}
	if t.newID == nil {
		t.newID = uuid.NewString
	}
	return t
}

// ProcessLocation runs one report from a driver connection through the
// pipeline and returns the alerts it raised. Only an invalid report is an
// error.
func (t *Tracker) ProcessLocation(ctx context.Context, r domain.LocationReport) ([]domain.Alert, error) {
	v, alerts, err := t.ingest(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("process location: %w", err)
	}
	t.registry.Upsert(r.DriverID, v)
	t.hub.BroadcastToObservers(events.LocationUpdate{Vehicle: v.Clone()})
	return alerts, nil
}

// ReportLocation ingests a report posted over HTTP. History and alerts are
// always recorded; the vehicle is tracked and broadcast only while the
// driver has an open connection.
func (t *Tracker) ReportLocation(ctx context.Context, r domain.LocationReport) ([]domain.Alert, error) {
	v, alerts, err := t.ingest(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("report location: %w", err)
	}
	tracked := t.hub.WithDriver(r.DriverID, func() { t.registry.Upsert(r.DriverID, v) })
	if !tracked {
		t.log.WithField("driver_id", r.DriverID).Debug("report from unconnected driver not tracked")
		return alerts, nil
	}
	t.hub.BroadcastToObservers(events.LocationUpdate{Vehicle: v.Clone()})
	return alerts, nil
}

// ingest persists and evaluates r and returns the vehicle it describes.
func (t *Tracker) ingest(ctx context.Context, r domain.LocationReport) (domain.TrackedVehicle, []domain.Alert, error) {
	if err := r.Validate(); err != nil {
		return domain.TrackedVehicle{}, nil, err
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = t.now()
	}
	log := t.log.WithFields(logrus.Fields{"driver_id": r.DriverID, "delivery_id": r.DeliveryID})

	if err := t.store.InsertLocationHistory(ctx, r); err != nil {
		log.WithError(err).Warn("location history not persisted")
	}

	delivery, route := t.lookup(ctx, log, r.DeliveryID)

	ev := t.eval.Evaluate(r, delivery, route)
	for i := range ev.Alerts {
		ev.Alerts[i].ID = t.newID()
		t.record(ctx, log, &ev.Alerts[i])
	}

	if len(ev.Alerts) > 0 {
		log.WithFields(logrus.Fields{"alerts": len(ev.Alerts), "status": ev.Status}).Info("alerts raised")
	}
	return vehicleFor(r, delivery, ev), ev.Alerts, nil
}

// lookup resolves the delivery and its route. Failures degrade to nil.
func (t *Tracker) lookup(ctx context.Context, log logrus.FieldLogger, deliveryID string) (*domain.Delivery, *domain.Route) {
	if strings.TrimSpace(deliveryID) == "" {
		return nil, nil
	}

	delivery, err := t.store.FindDelivery(ctx, deliveryID)
	if err != nil {
		log.WithError(err).Debug("delivery lookup failed")
		return nil, nil
	}
	if t.routes == nil {
		return delivery, nil
	}

	route, err := t.routes.Resolve(ctx, delivery.RouteID)
	if err != nil {
		log.WithError(err).WithField("route_id", delivery.RouteID).Debug("route lookup failed")
		return delivery, nil
	}
	return delivery, route
}

// record persists and publishes one alert; both are best effort.
func (t *Tracker) record(ctx context.Context, log logrus.FieldLogger, a *domain.Alert) {
	if err := t.store.InsertAlert(ctx, a); err != nil {
		log.WithError(err).WithField("alert_id", a.ID).Warn("alert not persisted")
	}
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishAlert(ctx, a); err != nil {
		log.WithError(err).WithField("alert_id", a.ID).Warn("alert not published")
	}
}

func vehicleFor(r domain.LocationReport, d *domain.Delivery, ev alerts.Evaluation) domain.TrackedVehicle {
	v := domain.TrackedVehicle{
		DriverID:    r.DriverID,
		DriverName:  DefaultDriverName,
		DeliveryID:  r.DeliveryID,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Speed:       r.Speed,
		Heading:     r.Heading,
		Status:      ev.Status,
		VehicleType: DefaultVehicleType,
		LastUpdate:  r.Timestamp,
		Alerts:      ev.Alerts,
	}
	if d == nil {
		return v
	}

	if d.DriverName != "" {
		v.DriverName = d.DriverName
	}
	if d.VehicleType != "" {
		v.VehicleType = d.VehicleType
	}
	v.RouteID = d.RouteID
	v.RouteName = d.RouteName
	v.LicensePlate = d.LicensePlate
	return v
}

// ReportEmergency raises a critical alert and pushes it to every observer,
// whether or not it could be stored.
func (t *Tracker) ReportEmergency(ctx context.Context, r domain.EmergencyReport) (domain.Alert, error) {
	if strings.TrimSpace(r.DriverID) == "" {
		return domain.Alert{}, fmt.Errorf("report emergency: driver_id is required: %w", domain.ErrValidation)
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = t.now()
	}

	a := t.eval.Emergency(r)
	a.ID = t.newID()

	log := t.log.WithFields(logrus.Fields{"driver_id": r.DriverID, "delivery_id": r.DeliveryID, "alert_id": a.ID})
	t.record(ctx, log, &a)
	t.hub.BroadcastToObservers(events.Emergency{Alert: a})

	log.Warn("emergency reported")
	return a, nil
}

// DriverConnected registers the driver's connection. The driver appears in
// the registry only after its first report.
func (t *Tracker) DriverConnected(driverID string, c hub.Conn) {
	t.hub.RegisterDriver(driverID, c)
	t.log.WithFields(logrus.Fields{"driver_id": driverID, "conn": c.ID()}).Info("driver connected")
}

// DriverDisconnected tears down one driver connection. Callers invoke it
// once per connection; a connection already replaced by a newer one leaves
// the registry and observers untouched.
func (t *Tracker) DriverDisconnected(driverID string, c hub.Conn) {
	if !t.hub.ReleaseDriver(driverID, c) {
		t.log.WithFields(logrus.Fields{"driver_id": driverID, "conn": c.ID()}).Debug("stale driver connection closed")
		return
	}

	t.registry.Remove(driverID)
	t.hub.BroadcastToObservers(events.DriverDisconnected{DriverID: driverID})
	t.log.WithFields(logrus.Fields{"driver_id": driverID, "conn": c.ID()}).Info("driver disconnected")
}

// ObserverConnected registers c and sends it the current registry snapshot
// before any later update.
func (t *Tracker) ObserverConnected(c hub.Conn) error {
	baseline := func() events.Event {
		return events.ActiveDrivers{Vehicles: t.registry.Snapshot()}
	}
	if err := t.hub.RegisterObserver(c, baseline); err != nil {
		return fmt.Errorf("observer connected: %w", err)
	}
	t.log.WithField("conn", c.ID()).Info("observer connected")
	return nil
}

func (t *Tracker) ObserverDisconnected(c hub.Conn) {
	if t.hub.UnregisterObserver(c) {
		t.log.WithField("conn", c.ID()).Info("observer disconnected")
	}
}

// MessageDriver relays text from an observer to a connected driver.
func (t *Tracker) MessageDriver(driverID, text string) error {
	if err := t.hub.SendToDriver(driverID, events.AdminMessage{Message: text}); err != nil {
		return fmt.Errorf("message driver: %w", err)
	}
	return nil
}

// ActiveVehicles returns a copy of every tracked vehicle.
func (t *Tracker) ActiveVehicles() []domain.TrackedVehicle {
	return t.registry.Snapshot()
}

func (t *Tracker) ActiveDriverCount() int {
	return t.registry.Len()
}

// History returns the stored reports of a delivery in timestamp order.
func (t *Tracker) History(ctx context.Context, deliveryID string) ([]domain.LocationReport, error) {
	out, err := t.store.ListLocationHistory(ctx, deliveryID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("location history %s: %w", deliveryID, err)
	}
	return out, nil
}
