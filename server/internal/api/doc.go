// Package api implements the relay's optional admin HTTP surface. It is served
// on its own listener (admin.port) and never on the relay socket.
//
// New(store, stats) returns an http.Handler that serves:
//
//	GET /metrics         — Prometheus text exposition of relay counters
//	GET /api/v1/health   — status, connected clients, oscillator count
//	GET /api/v1/state    — read-only copy of the canonical state (SYNC shape)
//
// All JSON endpoints respond with Content-Type: application/json and return
// 405 for non-GET methods. The admin surface can only read state; updates go
// through the relay protocol.
package api
