package relay

import "github.com/tonerelay/tonerelay/server/internal/registry"

// EventKind identifies a connection lifecycle event.
type EventKind int

const (
	EventOpen EventKind = iota
	EventMessage
	EventClose
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one transport notification for a single connection.
type Event struct {
	Kind EventKind
	Conn registry.Conn
	Data []byte // EventMessage only
	Err  error  // EventError only
}

// Opened returns an EventOpen for c.
func Opened(c registry.Conn) Event { return Event{Kind: EventOpen, Conn: c} }

// Received returns an EventMessage carrying one inbound text frame.
func Received(c registry.Conn, data []byte) Event {
	return Event{Kind: EventMessage, Conn: c, Data: data}
}

// Closed returns an EventClose for c.
func Closed(c registry.Conn) Event { return Event{Kind: EventClose, Conn: c} }

// Failed returns an EventError for c.
func Failed(c registry.Conn, err error) Event {
	return Event{Kind: EventError, Conn: c, Err: err}
}
