package ws

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/websocket"

	"github.com/tonerelay/tonerelay/server/internal/relay"
)

// DefaultFallbackMessage is the body served to non-upgrade requests.
const DefaultFallbackMessage = "Audio Server Logic Active. Connect via WebSocket."

// Options tunes the transport. Zero values for the durations disable the
// corresponding feature.
type Options struct {
	// SendBuffer is the per-connection outbound queue depth.
	SendBuffer int

	// MaxMessageBytes caps inbound frame size; 0 means gorilla's default (no limit).
	MaxMessageBytes int64

	// PingInterval enables keepalive pings. A peer that fails to answer within
	// 10/9 of the interval is treated as a transport error.
	PingInterval time.Duration

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration

	// FallbackMessage is the text/plain body for non-upgrade requests.
	FallbackMessage string
}

const defaultSendBuffer = 256

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = defaultSendBuffer
	}
	if o.FallbackMessage == "" {
		o.FallbackMessage = DefaultFallbackMessage
	}
	return o
}

// Dispatcher is the subset of relay.Dispatcher the transport needs.
type Dispatcher interface {
	Post(ev relay.Event) bool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Peers are not authenticated; origin checks are left to a reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server serves the relay listener: WebSocket upgrades on any path, plain
// text for everything else.
type Server struct {
	dispatcher Dispatcher
	opts       Options
}

// New creates a Server that reports connection events to d.
func New(d Dispatcher, opts Options) *Server {
	return &Server{dispatcher: d, opts: opts.withDefaults()}
}

// ServeHTTP upgrades WebSocket requests and serves the fallback body to all
// others. For upgraded connections it blocks until the connection closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		m := httpsnoop.CaptureMetrics(http.HandlerFunc(s.fallback), w, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"duration", m.Duration,
		)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		slog.Warn("ws: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newConn(wsConn, s.opts, s.dispatcher.Post)
	if !s.dispatcher.Post(relay.Opened(c)) {
		// Dispatcher is shutting down.
		c.Close() //nolint:errcheck
		wsConn.Close()
		return
	}

	go c.writePump()
	c.readPump() // blocks until connection closes
}

func (s *Server) fallback(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, s.opts.FallbackMessage) //nolint:errcheck
}
