package api

import "github.com/tonerelay/tonerelay/pkg/types"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Clients     int    `json:"clients"`
	Oscillators int    `json:"oscillators"`
	Revision    uint64 `json:"revision"`
}

// StateResponse is the payload for GET /api/v1/state. Type and Oscillators
// match a SYNC frame exactly; the remaining fields are admin-only.
type StateResponse struct {
	Type        string             `json:"type"`
	Oscillators []types.Oscillator `json:"oscillators"`
	Revision    uint64             `json:"revision"`
	UpdatedAt   string             `json:"updated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
