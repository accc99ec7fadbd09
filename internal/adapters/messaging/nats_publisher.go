// Package messaging forwards alerts to other systems over NATS.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/platform/obs"
)

// publisher is the subset of *nats.Conn the alert publisher uses.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATS-backed implementation of the AlertPublisher port. Each alert is
// published as JSON on <prefix>.alerts.<kind>.
type NATSAlertPublisher struct {
	conn   publisher
	prefix string
	log    logrus.FieldLogger
}

func NewNATSAlertPublisher(conn publisher, prefix string, log logrus.FieldLogger) *NATSAlertPublisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if prefix == "" {
		prefix = "sitetrack"
	}
	return &NATSAlertPublisher{conn: conn, prefix: prefix, log: log.WithField("component", "alert_publisher")}
}

// Connect dials NATS with reconnect handling that logs state changes.
func Connect(url, name string, log logrus.FieldLogger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("nats reconnected")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats: connect %s: %w", url, err)
	}
	return conn, nil
}

func (p *NATSAlertPublisher) Subject(kind domain.AlertKind) string {
	return fmt.Sprintf("%s.alerts.%s", p.prefix, kind)
}

func (p *NATSAlertPublisher) PublishAlert(ctx context.Context, a *domain.Alert) (err error) {
	defer obs.Time(ctx, p.log, "alerts.publish")(&err)

	if p.conn == nil {
		return errors.New("publish alert: nats connection is nil")
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("publish alert %s: encode: %w", a.ID, err)
	}
	if err := p.conn.Publish(p.Subject(a.Kind), payload); err != nil {
		return fmt.Errorf("publish alert %s: %w: %w", a.ID, domain.ErrTransport, err)
	}
	return nil
}
