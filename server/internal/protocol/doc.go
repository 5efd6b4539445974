// Package protocol implements the relay's JSON wire codec.
//
// Two message kinds exist, both discriminated by a "type" field:
//
//	{"type": "SYNC",   "oscillators": [...]}  // server → client, full snapshot
//	{"type": "UPDATE", "oscillators": [...]}  // client → server, full replacement
//
// Decode never fails loudly: anything that is not a structurally valid UPDATE
// yields a no-op Message together with an error describing why, which callers
// log and otherwise ignore. EncodeSync renders a snapshot verbatim.
package protocol
