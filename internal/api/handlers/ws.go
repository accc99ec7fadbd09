package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/events"
	"sitetrack-service/internal/platform/obs"
	"sitetrack-service/internal/services"
)

// SocketHandler upgrades driver and observer connections. Each connection
// runs its read pump on the request goroutine and its write pump on its own.
type SocketHandler struct {
	Tracker    *services.Tracker
	SendBuffer int
	Upgrader   websocket.Upgrader
}

// NewSocketHandler accepts upgrades from the given origins; "*" allows any.
func NewSocketHandler(tracker *services.Tracker, sendBuffer int, allowedOrigins []string) *SocketHandler {
	return &SocketHandler{
		Tracker:    tracker,
		SendBuffer: sendBuffer,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

func (h *SocketHandler) upgrade(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger) (*wsConn, bool) {
	ws, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		log.WithError(err).Warn("websocket upgrade failed")
		return nil, false
	}
	c := newWSConn(uuid.NewString(), ws, h.SendBuffer, log)
	go c.writePump()
	return c, true
}

// Driver serves /ws/driver/{driverID}. Frames of type "location" are
// ingested in arrival order; other frames are ignored.
func (h *SocketHandler) Driver(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "driverID")
	log := obs.Logger(r.Context()).WithField("driver_id", driverID)

	c, ok := h.upgrade(w, r, log)
	if !ok {
		return
	}
	ctx := context.WithoutCancel(r.Context())

	h.Tracker.DriverConnected(driverID, c)
	c.readPump(func(b []byte) {
		msg, ok, err := events.DecodeDriverMessage(b)
		if err != nil {
			log.WithError(err).Debug("driver frame rejected")
			return
		}
		if !ok {
			return
		}

		_, err = h.Tracker.ProcessLocation(ctx, domain.LocationReport{
			DriverID:   driverID,
			DeliveryID: msg.DeliveryID,
			Latitude:   msg.Latitude,
			Longitude:  msg.Longitude,
			Speed:      msg.Speed,
			Heading:    msg.Heading,
		})
		if err != nil {
			log.WithError(err).Warn("location report rejected")
		}
	})
	h.Tracker.DriverDisconnected(driverID, c)
}

// Admin serves /ws/admin. The observer first receives the active_drivers
// snapshot, then every broadcast; it may relay messages to drivers.
func (h *SocketHandler) Admin(w http.ResponseWriter, r *http.Request) {
	log := obs.Logger(r.Context()).WithField("role", "observer")

	c, ok := h.upgrade(w, r, log)
	if !ok {
		return
	}
	if err := h.Tracker.ObserverConnected(c); err != nil {
		log.WithError(err).Warn("observer registration failed")
		_ = c.Close()
		return
	}

	c.readPump(func(b []byte) {
		msg, ok, err := events.DecodeObserverMessage(b)
		if err != nil {
			log.WithError(err).Debug("observer frame rejected")
			return
		}
		if !ok {
			return
		}

		if err := h.Tracker.MessageDriver(msg.DriverID, msg.Message); err != nil {
			lvl := logrus.WarnLevel
			if errors.Is(err, domain.ErrNotFound) {
				lvl = logrus.DebugLevel
			}
			log.WithError(err).WithField("target", msg.DriverID).Log(lvl, "message not delivered")
		}
	})
	h.Tracker.ObserverDisconnected(c)
}
