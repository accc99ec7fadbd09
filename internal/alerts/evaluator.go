// Package alerts turns location reports into alert decisions.
//
// Evaluation is pure: it reads the report, the delivery and the route and
// returns alerts without identities. Persisting and numbering them is the
// caller's job, which keeps identical inputs producing identical outputs.
package alerts

import (
	"fmt"
	"strings"
	"time"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/geo"
)

const (
	// Speed above which a report raises a speed alert (km/h).
	DefaultSpeedLimit = 30.0

	DeviationMessage = "route deviation detected"
	EmergencyMessage = "emergency reported by driver"

	// Display name used when a delivery carries no driver name.
	UnknownDriver = "unknown"
)

// Thresholds applied by the Evaluator.
type Policy struct {
	Tolerance  float64
	SpeedLimit float64
}

func DefaultPolicy() Policy {
	return Policy{Tolerance: geo.DefaultTolerance, SpeedLimit: DefaultSpeedLimit}
}

// Outcome of evaluating one report.
type Evaluation struct {
	Alerts []domain.Alert
	Status domain.VehicleStatus
}

type Evaluator struct {
	policy Policy
}

func NewEvaluator(p Policy) *Evaluator {
	if p.Tolerance <= 0 {
		p.Tolerance = geo.DefaultTolerance
	}
	if p.SpeedLimit <= 0 {
		p.SpeedLimit = DefaultSpeedLimit
	}
	return &Evaluator{policy: p}
}

func (e *Evaluator) Policy() Policy { return e.policy }

// Evaluate checks a report against its route.
//
// Without a resolvable route nothing is checked and the vehicle stays en_route.
// A deviation marks the vehicle as deviating; a speed violation only adds an
// alert. Routes without waypoints are never reported as deviating.
func (e *Evaluator) Evaluate(r domain.LocationReport, d *domain.Delivery, route *domain.Route) Evaluation {
	res := Evaluation{Alerts: []domain.Alert{}, Status: domain.StatusEnRoute}
	if route == nil {
		return res
	}

	driverName := UnknownDriver
	if d != nil && strings.TrimSpace(d.DriverName) != "" {
		driverName = d.DriverName
	}

	newAlert := func(kind domain.AlertKind, sev domain.Severity, msg string) domain.Alert {
		return domain.Alert{
			DriverID:   r.DriverID,
			DriverName: driverName,
			DeliveryID: r.DeliveryID,
			Kind:       kind,
			Message:    msg,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			Severity:   sev,
			CreatedAt:  r.Timestamp,
		}
	}

	if len(route.Waypoints) > 0 && geo.IsDeviating(r.Position(), route.Waypoints, e.policy.Tolerance) {
		res.Status = domain.StatusDeviation
		res.Alerts = append(res.Alerts, newAlert(domain.AlertDeviation, domain.SeverityMedium, DeviationMessage))
	}

	if r.Speed > e.policy.SpeedLimit {
		res.Alerts = append(res.Alerts, newAlert(domain.AlertSpeed, domain.SeverityHigh, SpeedMessage(r.Speed)))
	}

	return res
}

// Emergency builds the critical alert for a driver-initiated emergency.
// Geometry and delivery state play no part.
func (e *Evaluator) Emergency(r domain.EmergencyReport) domain.Alert {
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = EmergencyMessage
	}
	name := strings.TrimSpace(r.DriverName)
	if name == "" {
		name = UnknownDriver
	}
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return domain.Alert{
		DriverID:   r.DriverID,
		DriverName: name,
		DeliveryID: r.DeliveryID,
		Kind:       domain.AlertEmergency,
		Message:    msg,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Severity:   domain.SeverityCritical,
		CreatedAt:  ts,
	}
}

// SpeedMessage renders the speed alert text, speed rounded to one decimal.
func SpeedMessage(speed float64) string {
	return fmt.Sprintf("excessive speed: %.1f km/h", speed)
}
