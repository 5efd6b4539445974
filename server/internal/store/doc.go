// Package store holds the relay's single canonical oscillator list. The list
// lives in memory for the lifetime of the process and is replaced wholesale on
// every accepted update; there is no merge, diff or persistence.
package store
