// control/admin.go
// Author: momentics <momentics@gmail.com>
//
// Admin HTTP surface: Prometheus scrape endpoint plus debug probes and the
// effective configuration, routed with chi.

package control

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewAdminRouter mounts /metrics, /debug/state, /debug/config and /healthz.
// Any argument may be nil, in which case its route reports 404.
func NewAdminRouter(m *Metrics, probes *DebugProbes, cfg *ConfigStore) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	if reg := m.Registry(); reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	if probes != nil {
		r.Get("/debug/state", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, probes.DumpState())
		})
	}

	if cfg != nil {
		r.Get("/debug/config", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, cfg.GetSnapshot())
		})
	}

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
