// Package relay implements the synchronization dispatcher: the single-threaded
// state machine that turns connection events into store mutations and SYNC
// frames.
//
// Transports post typed events (Open, Message, Close, Error) with Post. Run
// consumes them one at a time, so a store replacement and the broadcast that
// follows it are never interleaved with another update:
//
//	Open    → register, send current state to that connection only
//	Message → decode; UPDATE replaces the store and broadcasts the new state
//	          to every open connection, sender included; anything else is
//	          logged and dropped
//	Close   → deregister (terminal)
//	Error   → same as Close
//
// A connection that cannot accept a frame (its outbound queue is full) is
// closed and deregistered; nothing is retried.
package relay
