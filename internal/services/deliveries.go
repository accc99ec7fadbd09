package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/ports"
)

// Most rows returned by list endpoints.
const ListLimit = 100

type DeliveryStore interface {
	ports.DeliveryRepository
	ports.UserRepository
}

type DeliveryService struct {
	store  DeliveryStore
	routes *RouteResolver
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewDeliveryService(store DeliveryStore, routes *RouteResolver, log logrus.FieldLogger) *DeliveryService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DeliveryService{
		store:  store,
		routes: routes,
		log:    log.WithField("component", "deliveries"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Input for a new delivery. DriverID is optional.
type NewDelivery struct {
	RouteID       string
	DriverID      string
	ScheduledTime *time.Time
	Company       string
	Notes         string
	VehicleType   string
	LicensePlate  string
}

// List returns the newest deliveries, optionally filtered by status.
func (s *DeliveryService) List(ctx context.Context, status string) ([]*domain.Delivery, error) {
	var f ports.DeliveryFilter
	if status != "" {
		st := domain.DeliveryStatus(status)
		if !st.Valid() {
			return nil, fmt.Errorf("list deliveries: unknown status %q: %w", status, domain.ErrValidation)
		}
		f.Status = st
	}

	out, err := s.store.ListDeliveries(ctx, f, ListLimit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	return out, nil
}

func (s *DeliveryService) Get(ctx context.Context, id string) (*domain.Delivery, error) {
	d, err := s.store.FindDelivery(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return d, nil
}

// Create stores a pending delivery on a known route. The route name is
// copied onto the delivery; a driver, when given, is assigned right away.
func (s *DeliveryService) Create(ctx context.Context, in NewDelivery) (*domain.Delivery, error) {
	if strings.TrimSpace(in.RouteID) == "" {
		return nil, fmt.Errorf("create delivery: route_id is required: %w", domain.ErrValidation)
	}

	route, err := s.routes.Resolve(ctx, in.RouteID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("create delivery: unknown route %q: %w", in.RouteID, domain.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("create delivery: %w", err)
	}

	d := &domain.Delivery{
		ID:            uuid.NewString(),
		RouteID:       route.ID,
		RouteName:     route.Name,
		Status:        domain.DeliveryPending,
		ScheduledTime: in.ScheduledTime,
		Company:       in.Company,
		Notes:         in.Notes,
		VehicleType:   in.VehicleType,
		LicensePlate:  in.LicensePlate,
		CreatedAt:     s.now(),
	}

	if in.DriverID != "" {
		u, err := s.store.FindUserByID(ctx, in.DriverID)
		if err != nil {
			return nil, fmt.Errorf("create delivery: driver %s: %w", in.DriverID, err)
		}
		d.Assign(u)
	}

	if err := s.store.InsertDelivery(ctx, d); err != nil {
		return nil, fmt.Errorf("create delivery: %w", err)
	}
	return d, nil
}

// UpdateStatus moves a delivery through its lifecycle.
func (s *DeliveryService) UpdateStatus(ctx context.Context, id, status string) (*domain.Delivery, error) {
	d, err := s.store.FindDelivery(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update delivery status: %w", err)
	}

	next := domain.DeliveryStatus(status)
	if err := d.Transition(next, s.now()); err != nil {
		return nil, fmt.Errorf("update delivery status: %w", err)
	}

	u := ports.DeliveryUpdate{Status: &d.Status}
	switch next {
	case domain.DeliveryInProgress:
		u.StartTime = d.StartTime
	case domain.DeliveryCompleted:
		u.EndTime = d.EndTime
	}
	if err := s.store.UpdateDeliveryFields(ctx, id, u); err != nil {
		return nil, fmt.Errorf("update delivery status: %w", err)
	}

	s.log.WithFields(logrus.Fields{"delivery_id": id, "status": next}).Info("delivery status changed")
	return d, nil
}

// Assign gives an open delivery to a driver and copies the driver's
// name and vehicle details onto it.
func (s *DeliveryService) Assign(ctx context.Context, id, driverID string) (*domain.Delivery, error) {
	if strings.TrimSpace(driverID) == "" {
		return nil, fmt.Errorf("assign delivery: driver_id is required: %w", domain.ErrValidation)
	}

	u, err := s.store.FindUserByID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("assign delivery: driver %s: %w", driverID, err)
	}
	d, err := s.store.FindDelivery(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("assign delivery: %w", err)
	}
	if d.Status != domain.DeliveryPending && d.Status != domain.DeliveryInProgress {
		return nil, fmt.Errorf("assign delivery %s: status %s is closed: %w", id, d.Status, domain.ErrValidation)
	}

	d.Assign(u)
	err = s.store.UpdateDeliveryFields(ctx, id, ports.DeliveryUpdate{
		DriverID:     &d.DriverID,
		DriverName:   &d.DriverName,
		VehicleType:  &d.VehicleType,
		LicensePlate: &d.LicensePlate,
	})
	if err != nil {
		return nil, fmt.Errorf("assign delivery: %w", err)
	}
	return d, nil
}

// Content encoded in a delivery's QR code.
type QRPayload struct {
	DeliveryID    string     `json:"delivery_id"`
	RouteID       string     `json:"route_id"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

type QRScan struct {
	Delivery *domain.Delivery `json:"delivery"`
	Route    *domain.Route    `json:"route"`
}

// QRPayload returns the payload to encode for delivery id.
func (s *DeliveryService) QRPayload(ctx context.Context, id string) (QRPayload, error) {
	d, err := s.store.FindDelivery(ctx, id)
	if err != nil {
		return QRPayload{}, fmt.Errorf("qr payload: %w", err)
	}
	return QRPayload{DeliveryID: d.ID, RouteID: d.RouteID, ScheduledTime: d.ScheduledTime}, nil
}

// ScanQR decodes a scanned payload, given either as a JSON object or as a
// JSON string holding one, and returns the delivery and its route.
// The route is nil when it cannot be resolved.
func (s *DeliveryService) ScanQR(ctx context.Context, raw json.RawMessage) (*QRScan, error) {
	p, err := parseQR(raw)
	if err != nil {
		return nil, fmt.Errorf("scan qr: %w", err)
	}

	d, err := s.store.FindDelivery(ctx, p.DeliveryID)
	if err != nil {
		return nil, fmt.Errorf("scan qr: %w", err)
	}

	routeID := p.RouteID
	if routeID == "" {
		routeID = d.RouteID
	}
	route, err := s.routes.Resolve(ctx, routeID)
	if err != nil {
		s.log.WithError(err).WithField("route_id", routeID).Debug("scanned route not resolved")
		route = nil
	}
	return &QRScan{Delivery: d, Route: route}, nil
}

func parseQR(raw json.RawMessage) (QRPayload, error) {
	var p QRPayload

	data := []byte(raw)
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		data = []byte(str)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return QRPayload{}, fmt.Errorf("invalid qr payload: %v: %w", err, domain.ErrValidation)
	}
	if strings.TrimSpace(p.DeliveryID) == "" {
		return QRPayload{}, fmt.Errorf("invalid qr payload: delivery_id is required: %w", domain.ErrValidation)
	}
	return p, nil
}
