package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tonerelay/tonerelay/server/internal/protocol"
	"github.com/tonerelay/tonerelay/server/internal/registry"
	"github.com/tonerelay/tonerelay/server/internal/store"
)

// DefaultQueueSize is the depth of the inbound event queue.
const DefaultQueueSize = 1024

// Stats is a point-in-time copy of the dispatcher counters.
type Stats struct {
	ConnectionsOpen  int
	ConnectionsTotal uint64
	UpdatesTotal     uint64
	MessagesIgnored  uint64
	SyncsSent        uint64
	SendFailures     uint64
}

// Dispatcher owns the relay state machine. Store and registry are injected so
// their lifetime and sharing are explicit.
type Dispatcher struct {
	store *store.Store
	reg   *registry.Registry

	events   chan Event
	postMu   sync.RWMutex // held shared by Post, exclusively once to fence it off
	stopping chan struct{}
	done     chan struct{}

	connsTotal   atomic.Uint64
	updates      atomic.Uint64
	ignored      atomic.Uint64
	syncsSent    atomic.Uint64
	sendFailures atomic.Uint64
}

// New creates a Dispatcher over st and reg. queueSize <= 0 selects
// DefaultQueueSize.
func New(st *store.Store, reg *registry.Registry, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{
		store:  st,
		reg:    reg,
		events:   make(chan Event, queueSize),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Post enqueues ev for Run. It blocks while the queue is full and returns
// false once the dispatcher is stopping. An event accepted by Post is always
// either handled or, during shutdown, has its connection closed.
func (d *Dispatcher) Post(ev Event) bool {
	d.postMu.RLock()
	defer d.postMu.RUnlock()

	select {
	case <-d.stopping:
		return false
	default:
	}
	select {
	case d.events <- ev:
		return true
	case <-d.stopping:
		return false
	}
}

// Done is closed when Run has returned.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Run processes events until ctx is cancelled, then closes every registered
// connection and every connection still waiting in the queue. Run must be
// called exactly once.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			d.stop()
			return
		case ev := <-d.events:
			d.Handle(ev)
		}
	}
}

func (d *Dispatcher) stop() {
	close(d.stopping)
	// Wait out Posts already past their stopping check; later ones fail.
	d.postMu.Lock()
	d.postMu.Unlock() //nolint:staticcheck

	d.closeAll()
	for {
		select {
		case ev := <-d.events:
			ev.Conn.Close() //nolint:errcheck
		default:
			return
		}
	}
}

// Handle applies one event synchronously. Callers other than Run must
// serialise their calls; Handle is not safe for concurrent use with itself.
func (d *Dispatcher) Handle(ev Event) {
	switch ev.Kind {
	case EventOpen:
		d.open(ev.Conn)
	case EventMessage:
		d.message(ev.Conn, ev.Data)
	case EventClose:
		d.close(ev.Conn, nil)
	case EventError:
		d.close(ev.Conn, ev.Err)
	default:
		slog.Warn("relay: unknown event kind", "kind", int(ev.Kind))
	}
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		ConnectionsOpen:  d.reg.Count(),
		ConnectionsTotal: d.connsTotal.Load(),
		UpdatesTotal:     d.updates.Load(),
		MessagesIgnored:  d.ignored.Load(),
		SyncsSent:        d.syncsSent.Load(),
		SendFailures:     d.sendFailures.Load(),
	}
}

// --- transitions -------------------------------------------------------------

func (d *Dispatcher) open(c registry.Conn) {
	if !d.reg.Add(c) {
		return
	}
	d.connsTotal.Add(1)
	slog.Info("client connected", "conn_id", c.ID(), "clients", d.reg.Count())

	// Point-to-point catch-up, not a broadcast.
	data, err := protocol.EncodeSync(d.store.Get())
	if err != nil {
		slog.Error("relay: encode initial sync", "conn_id", c.ID(), "err", err)
		return
	}
	d.send(c, data)
}

func (d *Dispatcher) message(c registry.Conn, data []byte) {
	if !d.reg.Contains(c) {
		// Closed (terminal) or never opened.
		slog.Debug("relay: message from unregistered connection dropped", "conn_id", c.ID())
		return
	}

	msg, err := protocol.Decode(data)
	if err != nil || msg.Kind != protocol.KindUpdate {
		d.ignored.Add(1)
		slog.Warn("failed to process message", "conn_id", c.ID(), "type", msg.Type, "err", err)
		return
	}

	rev := d.store.Replace(msg.Oscillators)
	d.updates.Add(1)

	// Encode from a fresh read so the frame reflects exactly what was stored.
	payload, err := protocol.EncodeSync(d.store.Get())
	if err != nil {
		slog.Error("relay: encode sync", "revision", rev, "err", err)
		return
	}

	n := d.reg.ForEachOpen(func(target registry.Conn) {
		d.send(target, payload)
	})
	slog.Debug("state updated",
		"conn_id", c.ID(),
		"revision", rev,
		"oscillators", len(msg.Oscillators),
		"recipients", n,
	)
}

func (d *Dispatcher) close(c registry.Conn, cause error) {
	if cause != nil {
		slog.Error("websocket error", "conn_id", c.ID(), "err", cause)
	}
	if !d.reg.Remove(c) {
		return
	}
	slog.Info("client disconnected", "conn_id", c.ID(), "clients", d.reg.Count())
}

// send delivers data to c. A connection that refuses the frame is closed and
// deregistered; its transport will report Close later, which is then a no-op.
// A connection that closed on its own since the caller checked it is skipped.
func (d *Dispatcher) send(c registry.Conn, data []byte) {
	if err := c.Send(data); err != nil {
		if errors.Is(err, registry.ErrClosed) {
			slog.Debug("relay: connection closed before send, skipped", "conn_id", c.ID())
			return
		}
		d.sendFailures.Add(1)
		slog.Warn("relay: send failed, dropping client", "conn_id", c.ID(), "err", err)
		d.reg.Remove(c)
		c.Close() //nolint:errcheck
		return
	}
	d.syncsSent.Add(1)
}

func (d *Dispatcher) closeAll() {
	d.reg.ForEachOpen(func(c registry.Conn) {
		d.reg.Remove(c)
		c.Close() //nolint:errcheck
	})
}
