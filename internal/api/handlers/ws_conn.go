package handlers

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sitetrack-service/internal/domain"
	"sitetrack-service/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

// wsConn is a hub.Conn over a WebSocket. Send only queues onto a bounded
// buffer; the write pump owns every write to the socket.
type wsConn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	log  logrus.FieldLogger
}

func newWSConn(id string, ws *websocket.Conn, buffer int, log logrus.FieldLogger) *wsConn {
	if buffer <= 0 {
		buffer = 1
	}
	return &wsConn{
		id:   id,
		ws:   ws,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
		log:  log.WithField("conn", id),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(ev events.Event) error {
	b, err := events.Encode(ev)
	if err != nil {
		return fmt.Errorf("conn %s: encode %s: %w", c.id, ev.Kind(), err)
	}

	select {
	case <-c.done:
		return fmt.Errorf("conn %s: closed: %w", c.id, domain.ErrTransport)
	default:
	}

	select {
	case c.send <- b:
		return nil
	default:
		return fmt.Errorf("conn %s: send buffer full: %w", c.id, domain.ErrTransport)
	}
}

// Close stops the write pump, which closes the socket and ends the read pump.
func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.WithError(err).Debug("write failed")
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump hands every inbound frame to handle, in order, until the socket
// fails or is closed.
func (c *wsConn) readPump(handle func([]byte)) {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Debug("read failed")
			}
			return
		}
		handle(msg)
	}
}
