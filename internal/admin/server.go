// Package admin serves the local diagnostics endpoint for `mcpgate serve`:
// health, the published catalog, and Prometheus metrics.
package admin

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcpgate/mcpgate/internal/coordinator"
)

// NewRouter builds the admin HTTP handler for one coordinator.
func NewRouter(coord *coordinator.Coordinator, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		state := coord.State()
		status := http.StatusOK
		if state != coordinator.StateReady && state != coordinator.StateDegraded {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{
			"state":            state.String(),
			"coordinator":      coord.ID(),
			"catalogFetchedAt": coord.CatalogFetchedAt(),
		})
	})

	r.Get("/tools", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"tools": coord.Tools(),
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
