package server

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avandyck/gorelay/pkg/protocol"
)

var ErrSendBufferFull = errors.New("server: client send buffer full")
var ErrClientClosed = errors.New("server: client closed")

// client is the gateway-side handle for one WebSocket connection. It
// implements Sender by enqueueing encoded events on a buffered channel that
// writePump drains, so router fan-out never blocks on a slow connection.
type client struct {
	id           string
	conn         *websocket.Conn
	send         chan []byte
	writeTimeout time.Duration
	pingPeriod   time.Duration

	closeOnce sync.Once
	done      chan struct{} // closed exactly once when the client shuts down
}

func newClient(id string, conn *websocket.Conn, cfg Config) *client {
	return &client{
		id:           id,
		conn:         conn,
		send:         make(chan []byte, cfg.SendBuffer),
		writeTimeout: cfg.WriteTimeout,
		pingPeriod:   cfg.PongTimeout * 9 / 10,
		done:         make(chan struct{}),
	}
}

// Send encodes the event and queues it for delivery. It fails immediately
// when the client is closed or its buffer is full; it never blocks.
func (c *client) Send(ev *protocol.ServerEvent) error {
	data, err := ev.Encode()
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close tears down the connection. Safe to call from any goroutine, any
// number of times.
func (c *client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
	return nil
}

// writePump serializes all writes to the connection: queued events and
// keep-alive pings. A single writer goroutine per connection is required by
// the websocket package, and it also preserves the router's per-recipient
// emission order.
func (c *client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				if !isExpectedCloseError(err) {
					slog.Debug("write failed", "session", c.id, "err", err)
				}
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// isExpectedCloseError reports whether an error is part of normal
// connection teardown and not worth logging.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
