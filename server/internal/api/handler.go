package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"

	"github.com/tonerelay/tonerelay/server/internal/protocol"
	"github.com/tonerelay/tonerelay/server/internal/relay"
	"github.com/tonerelay/tonerelay/server/internal/store"
)

// StatsSource reports dispatcher counters. *relay.Dispatcher satisfies it.
type StatsSource interface {
	Stats() relay.Stats
}

// Handler is the HTTP handler for the admin endpoints.
type Handler struct {
	store *store.Store
	stats StatsSource
	mux   *http.ServeMux
}

// New creates a Handler over the given store and counters and registers all routes.
func New(st *store.Store, stats StatsSource) http.Handler {
	h := &Handler{store: st, stats: stats, mux: http.NewServeMux()}

	h.mux.HandleFunc("/metrics", h.metrics)
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/state", h.state)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// LogRequests wraps next with an access log line per request.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		slog.Debug("admin request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		)
	})
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jsonResp(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		Clients:     h.stats.Stats().ConnectionsOpen,
		Oscillators: h.store.Len(),
		Revision:    h.store.Revision(),
	})
}

// state returns GET /api/v1/state: the canonical oscillator list.
func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jsonResp(w, http.StatusOK, StateResponse{
		Type:        protocol.TypeSync,
		Oscillators: h.store.Get(),
		Revision:    h.store.Revision(),
		UpdatedAt:   h.store.UpdatedAt().UTC().Format(time.RFC3339),
	})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
