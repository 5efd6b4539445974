// Package registry tracks the set of peer connections eligible to receive
// broadcasts. Membership is a plain set: no ordering, no duplicates.
package registry

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Conn.Send when the transport closed after the
// caller last saw it open. It is not a delivery failure.
var ErrClosed = errors.New("registry: connection closed")

// Conn is one peer session as seen by the registry and the dispatcher.
type Conn interface {
	// ID is a log correlation id; it carries no protocol meaning.
	ID() string
	// Send queues data for delivery. It must not block on the network.
	// A closed connection returns an error wrapping ErrClosed.
	Send(data []byte) error
	// IsOpen reports whether the transport is still open right now.
	IsOpen() bool
	// Close tears down the transport. Safe to call more than once.
	Close() error
}

// Registry is a concurrency-safe set of connections.
type Registry struct {
	mu    sync.RWMutex
	conns map[Conn]struct{}
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{conns: make(map[Conn]struct{})}
}

// Add registers c. Adding a member twice is a no-op. It reports whether c was
// newly added.
func (r *Registry) Add(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; ok {
		return false
	}
	r.conns[c] = struct{}{}
	return true
}

// Remove deregisters c. Removing a non-member is a no-op. It reports whether
// c was a member.
func (r *Registry) Remove(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; !ok {
		return false
	}
	delete(r.conns, c)
	return true
}

// Contains reports whether c is currently registered.
func (r *Registry) Contains(c Conn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[c]
	return ok
}

// Count returns the number of registered connections, open or not.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ForEachOpen calls fn for every registered connection whose transport is
// open at the moment fn would be called. Membership is copied before
// iterating, so fn may Add or Remove freely; a connection removed and closed
// mid-iteration is skipped if not yet visited. It returns how many times fn
// was called.
func (r *Registry) ForEachOpen(fn func(Conn)) int {
	r.mu.RLock()
	targets := make([]Conn, 0, len(r.conns))
	for c := range r.conns {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	visited := 0
	for _, c := range targets {
		if !c.IsOpen() || !r.Contains(c) {
			continue
		}
		fn(c)
		visited++
	}
	return visited
}
