// Package types defines the shared oscillator record exchanged between the
// relay and its peers. Records are opaque JSON values: the relay stores and
// rebroadcasts them without interpreting any field.
package types
