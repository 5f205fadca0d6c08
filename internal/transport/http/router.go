// Package httptransport is the thin HTTP layer over the custody services.
// Handlers decode, validate, and delegate; domain logic stays in the
// services and the unit executor.
package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/manolisliolios/rwa-standard/pkg/platform/httputil"
)

// NewRouter wires all public endpoints plus health and metrics.
func NewRouter(assets *AssetsHandler, vaults *VaultsHandler, units *UnitsHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	assets.Register(r)
	vaults.Register(r)
	units.Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}
