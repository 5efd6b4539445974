package api

import (
	"log/slog"
	"net/http"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Exposed metric names.
const (
	metricConnectionsOpen  = "relay_connections_open"
	metricConnectionsTotal = "relay_connections_total"
	metricUpdatesTotal     = "relay_updates_total"
	metricIgnoredTotal     = "relay_messages_ignored_total"
	metricSyncsSentTotal   = "relay_syncs_sent_total"
	metricSendFailures     = "relay_send_failures_total"
	metricOscillators      = "relay_oscillators"
)

// metrics returns GET /metrics in the Prometheus text format.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))
	w.WriteHeader(http.StatusOK)

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range h.families() {
		if err := enc.Encode(mf); err != nil {
			slog.Warn("api: encode metric family", "name", mf.GetName(), "err", err)
			return
		}
	}
}

// families builds the metric families from the current counters.
func (h *Handler) families() []*dto.MetricFamily {
	s := h.stats.Stats()
	return []*dto.MetricFamily{
		gauge(metricConnectionsOpen, "Currently registered peer connections.", float64(s.ConnectionsOpen)),
		counter(metricConnectionsTotal, "Peer connections accepted since start.", float64(s.ConnectionsTotal)),
		counter(metricUpdatesTotal, "UPDATE messages applied to the state.", float64(s.UpdatesTotal)),
		counter(metricIgnoredTotal, "Inbound messages dropped as malformed or unrecognised.", float64(s.MessagesIgnored)),
		counter(metricSyncsSentTotal, "SYNC frames queued to peers.", float64(s.SyncsSent)),
		counter(metricSendFailures, "Peers dropped because a SYNC could not be queued.", float64(s.SendFailures)),
		gauge(metricOscillators, "Oscillators in the canonical state.", float64(h.store.Len())),
	}
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: &v}}},
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   &name,
		Help:   &help,
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: &v}}},
	}
}
