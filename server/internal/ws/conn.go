package ws

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tonerelay/tonerelay/server/internal/registry"
	"github.com/tonerelay/tonerelay/server/internal/relay"
)

var (
	// ErrSendBufferFull is returned by Send when the outbound queue is full.
	ErrSendBufferFull = errors.New("ws: send buffer full")
	// ErrClosed is returned by Send after the connection has been closed.
	ErrClosed = fmt.Errorf("ws: %w", registry.ErrClosed)
)

// Conn is one upgraded peer connection. It implements registry.Conn.
type Conn struct {
	id   string
	ws   *websocket.Conn
	opts Options
	post func(relay.Event) bool

	send chan []byte
	quit chan struct{}

	open      atomic.Bool
	closeOnce sync.Once
}

func newConn(wsConn *websocket.Conn, opts Options, post func(relay.Event) bool) *Conn {
	c := &Conn{
		id:   uuid.NewString(),
		ws:   wsConn,
		opts: opts,
		post: post,
		send: make(chan []byte, opts.SendBuffer),
		quit: make(chan struct{}),
	}
	c.open.Store(true)
	return c
}

// ID returns the connection's random correlation id.
func (c *Conn) ID() string { return c.id }

// IsOpen reports whether the connection has not yet been closed from either side.
func (c *Conn) IsOpen() bool { return c.open.Load() }

// Send queues data as one text frame. It never blocks.
func (c *Conn) Send(data []byte) error {
	if !c.IsOpen() {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close marks the connection closed and asks the write pump to send a close
// frame and release the socket. Safe to call repeatedly and concurrently.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.open.Store(false)
		close(c.quit)
	})
	return nil
}

// writePump drains the send queue to the socket and, when enabled, sends
// periodic pings. Runs in its own goroutine per connection.
func (c *Conn) writePump() {
	var tick <-chan time.Time
	if c.opts.PingInterval > 0 {
		ticker := time.NewTicker(c.opts.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer c.ws.Close()

	for {
		select {
		case msg := <-c.send:
			c.setWriteDeadline()
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close() //nolint:errcheck
				return
			}

		case <-tick:
			c.setWriteDeadline()
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close() //nolint:errcheck
				return
			}

		case <-c.quit:
			c.setWriteDeadline()
			c.ws.WriteMessage(websocket.CloseMessage, //nolint:errcheck
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump posts every inbound text frame to the dispatcher and reports the
// terminal close or error exactly once. Blocks until the connection ends.
func (c *Conn) readPump() {
	defer c.ws.Close()

	if c.opts.MaxMessageBytes > 0 {
		c.ws.SetReadLimit(c.opts.MaxMessageBytes)
	}
	if c.opts.PingInterval > 0 {
		pongWait := c.opts.PingInterval * 10 / 9
		c.ws.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		c.ws.SetPongHandler(func(string) error {
			return c.ws.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			c.post(c.terminalEvent(err))
			return
		}
		if kind != websocket.TextMessage {
			slog.Warn("ws: non-text frame ignored", "conn_id", c.id, "frame_type", kind)
			continue
		}
		if !c.post(relay.Received(c, data)) {
			c.Close() //nolint:errcheck
			return
		}
	}
}

// terminalEvent classifies a read error. A clean close handshake, or a socket
// this side already closed, is a Close; anything else is an Error.
func (c *Conn) terminalEvent(err error) relay.Event {
	wasOpen := c.IsOpen()
	c.Close() //nolint:errcheck

	var ce *websocket.CloseError
	if errors.As(err, &ce) && !websocket.IsUnexpectedCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return relay.Closed(c)
	}
	if !wasOpen {
		return relay.Closed(c)
	}
	return relay.Failed(c, err)
}

func (c *Conn) setWriteDeadline() {
	if c.opts.WriteTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)) //nolint:errcheck
	}
}
