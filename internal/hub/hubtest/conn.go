// Package hubtest provides an in-memory hub.Conn for tests.
package hubtest

import (
	"fmt"
	"sync"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/events"
)

// Conn queues events in memory up to a fixed capacity. A full queue, a
// closed connection or a connection marked broken fails the send.
type Conn struct {
	id string

	mu     sync.Mutex
	queue  []events.Event
	limit  int
	broken bool
	closed bool
	closes int
}

func NewConn(id string, limit int) *Conn {
	return &Conn{id: id, limit: limit}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Send(ev events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return fmt.Errorf("conn %s: closed: %w", c.id, domain.ErrTransport)
	case c.broken:
		return fmt.Errorf("conn %s: broken: %w", c.id, domain.ErrTransport)
	case c.limit > 0 && len(c.queue) >= c.limit:
		return fmt.Errorf("conn %s: send buffer full: %w", c.id, domain.ErrTransport)
	}
	c.queue = append(c.queue, ev)
	return nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.closes++
	}
	return nil
}

// Break makes every later Send fail.
func (c *Conn) Break() {
	c.mu.Lock()
	c.broken = true
	c.mu.Unlock()
}

// Events returns a copy of the queued events in send order.
func (c *Conn) Events() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Event, len(c.queue))
	copy(out, c.queue)
	return out
}

// OfKind returns queued events of kind k in send order.
func (c *Conn) OfKind(k events.Kind) []events.Event {
	var out []events.Event
	for _, ev := range c.Events() {
		if ev.Kind() == k {
			out = append(out, ev)
		}
	}
	return out
}

func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
