// Package hub fans events out to connected drivers and observers.
package hub

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/events"
)

// Conn is one subscriber connection.
//
// Send must not block beyond a bounded attempt: implementations queue the
// event or fail. Close must be idempotent.
type Conn interface {
	ID() string
	Send(ev events.Event) error
	Close() error
}

// Hub tracks one connection per driver id and an unkeyed set of observers.
// Sends happen outside the hub lock; a failed send evicts the subscriber.
//
// A driver id is released exactly once per owning connection: either by the
// connection that still holds it, or by one evicted after a failed send
// whose teardown has not run yet. A connection replaced by a newer one
// never releases the id.
type Hub struct {
	mu      sync.RWMutex
	drivers map[string]Conn
	// Driver connections evicted by a failed send, keyed to the id they held.
	evicted   map[Conn]string
	observers map[Conn]struct{}
	log       logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		drivers:   make(map[string]Conn),
		evicted:   make(map[Conn]string),
		observers: make(map[Conn]struct{}),
		log:       log.WithField("component", "hub"),
	}
}

// RegisterDriver makes c the connection for id. A previous connection for the
// same id is replaced and closed.
func (h *Hub) RegisterDriver(id string, c Conn) {
	h.mu.Lock()
	prev, ok := h.drivers[id]
	h.drivers[id] = c
	h.forgetEvicted(id)
	h.mu.Unlock()

	if ok && prev != c {
		_ = prev.Close()
		h.log.WithFields(logrus.Fields{"driver_id": id, "conn": prev.ID()}).Info("driver connection replaced")
	}
}

// UnregisterDriver drops whatever connection id has. The dropped connection
// no longer owns id, so its later ReleaseDriver reports false.
func (h *Hub) UnregisterDriver(id string) {
	h.mu.Lock()
	delete(h.drivers, id)
	h.forgetEvicted(id)
	h.mu.Unlock()
}

// ReleaseDriver ends c's ownership of id and reports whether c still owned
// it. It returns true once for the registered connection, or once for a
// connection evicted by a failed send with no newer connection since. A
// replaced connection, an unknown one or a repeated call gets false.
func (h *Hub) ReleaseDriver(id string, c Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.drivers[id]; ok && cur == c {
		delete(h.drivers, id)
		return true
	}
	if eid, ok := h.evicted[c]; ok && eid == id {
		delete(h.evicted, c)
		return true
	}
	return false
}

// evictDriver drops c for id after a failed send. The id stays owed to c
// until its ReleaseDriver call.
func (h *Hub) evictDriver(id string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.drivers[id]; ok && cur == c {
		delete(h.drivers, id)
		h.evicted[c] = id
	}
}

// WithDriver runs fn while id has a registered connection and reports
// whether it ran. The connection cannot be released until fn returns.
func (h *Hub) WithDriver(id string, fn func()) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.drivers[id]; !ok {
		return false
	}
	fn()
	return true
}

// forgetEvicted must be called with h.mu held.
func (h *Hub) forgetEvicted(id string) {
	for c, eid := range h.evicted {
		if eid == id {
			delete(h.evicted, c)
		}
	}
}

// RegisterObserver adds c to the observer set. When baseline is non-nil its
// event is sent to c before c can receive any broadcast.
func (h *Hub) RegisterObserver(c Conn, baseline func() events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if baseline != nil {
		if err := c.Send(baseline()); err != nil {
			return fmt.Errorf("register observer %s: send baseline: %w", c.ID(), err)
		}
	}
	h.observers[c] = struct{}{}
	return nil
}

// UnregisterObserver removes c and reports whether it was registered.
func (h *Hub) UnregisterObserver(c Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.observers[c]; !ok {
		return false
	}
	delete(h.observers, c)
	return true
}

// BroadcastToObservers delivers ev to every observer. Observers whose send
// fails are evicted and closed; their ids are returned.
func (h *Hub) BroadcastToObservers(ev events.Event) []string {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.observers))
	for c := range h.observers {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var failed []Conn
	for _, c := range targets {
		if err := c.Send(ev); err != nil {
			h.log.WithFields(logrus.Fields{"conn": c.ID(), "event": ev.Kind(), "err": err}).Warn("observer send failed")
			failed = append(failed, c)
		}
	}
	if len(failed) == 0 {
		return nil
	}

	evicted := make([]string, 0, len(failed))
	for _, c := range failed {
		if h.UnregisterObserver(c) {
			evicted = append(evicted, c.ID())
		}
		_ = c.Close()
	}
	return evicted
}

// SendToDriver delivers ev to the driver's connection. A failed send evicts it.
func (h *Hub) SendToDriver(id string, ev events.Event) error {
	h.mu.RLock()
	c, ok := h.drivers[id]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("send to driver %s: %w", id, domain.ErrNotFound)
	}

	if err := c.Send(ev); err != nil {
		h.evictDriver(id, c)
		_ = c.Close()
		h.log.WithFields(logrus.Fields{"driver_id": id, "event": ev.Kind(), "err": err}).Warn("driver send failed")
		return fmt.Errorf("send to driver %s: %w", id, err)
	}
	return nil
}

func (h *Hub) DriverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.drivers)
}

func (h *Hub) ObserverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}
